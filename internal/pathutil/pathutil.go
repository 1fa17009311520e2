// Package pathutil manages application file paths and locations
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
)

// Paths holds all application path configurations.
type Paths struct {
	appDir         string
	configFileName string
	storeFileName  string
	dbFileName     string
	backupDirName  string
	logFileName    string

	// Computed absolute paths
	configFilePath string
	storeFilePath  string
	dbFilePath     string
	backupDir      string
	logFilePath    string
}

var (
	paths *Paths
	once  sync.Once
)

// Initialize must be called once at program startup.
func Initialize() error {
	var initErr error

	once.Do(func() {
		p := &Paths{
			appDir:         "worklog",
			configFileName: "config.yml",
			storeFileName:  "worklog.json",
			dbFileName:     "worklog.db",
			backupDirName:  "backups",
			logFileName:    "worklog.log",
		}

		p.applyEnvironmentOverrides()

		initErr = p.computePaths()
		if initErr == nil {
			paths = p
		}
	})

	return initErr
}

// Must panics if paths haven't been initialized.
func Must() *Paths {
	if paths == nil {
		panic("pathutil.Initialize() must be called before accessing paths")
	}

	return paths
}

func ConfigFilePath() string {
	return Must().configFilePath
}

// StoreFilePath is the JSON document used by the file backend.
func StoreFilePath() string {
	return Must().storeFilePath
}

// DBFilePath is the database used by the bolt backend.
func DBFilePath() string {
	return Must().dbFilePath
}

func BackupDir() string {
	return Must().backupDir
}

func LogFilePath() string {
	return Must().logFilePath
}

// applyEnvironmentOverrides suffixes every file name with WORKLOG_ENV.
func (p *Paths) applyEnvironmentOverrides() {
	env := strings.TrimSpace(os.Getenv("WORKLOG_ENV"))
	if env == "" {
		return
	}

	p.configFileName = fmt.Sprintf("config_%s.yml", env)
	p.storeFileName = fmt.Sprintf("worklog_%s.json", env)
	p.dbFileName = fmt.Sprintf("worklog_%s.db", env)
	p.backupDirName = fmt.Sprintf("backups_%s", env)
	p.logFileName = fmt.Sprintf("worklog_%s.log", env)
}

func (p *Paths) computePaths() error {
	var err error

	relPath := filepath.Join(p.appDir, p.configFileName)

	p.configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		return err
	}

	dataDir, err := xdg.DataFile(p.appDir)
	if err != nil {
		return err
	}

	p.storeFilePath = filepath.Join(dataDir, p.storeFileName)
	p.dbFilePath = filepath.Join(dataDir, p.dbFileName)
	p.backupDir = filepath.Join(dataDir, p.backupDirName)
	p.logFilePath = filepath.Join(dataDir, "log", p.logFileName)

	return nil
}
