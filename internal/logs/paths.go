package logs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	osWindows = "windows"
	osDarwin  = "darwin"
	osLinux   = "linux"
)

// GetLogDir returns the standard log directory for the current OS
func GetLogDir() (string, error) {
	switch runtime.GOOS {
	case osWindows:
		return getWindowsLogDir()
	case osDarwin:
		return getMacOSLogDir()
	case osLinux:
		return getLinuxLogDir()
	default:
		return getDefaultLogDir()
	}
}

// getWindowsLogDir uses %LOCALAPPDATA%\craftpanel\logs
func getWindowsLogDir() (string, error) {
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return getDefaultLogDir()
		}
		localAppData = filepath.Join(userProfile, "AppData", "Local")
	}
	return filepath.Join(localAppData, "craftpanel", "logs"), nil
}

// getMacOSLogDir uses ~/Library/Logs/craftpanel
func getMacOSLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return getDefaultLogDir()
	}
	return filepath.Join(homeDir, "Library", "Logs", "craftpanel"), nil
}

// getLinuxLogDir uses the XDG state directory, or /var/log/craftpanel as root
func getLinuxLogDir() (string, error) {
	if os.Getuid() == 0 {
		return "/var/log/craftpanel", nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return getDefaultLogDir()
	}

	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		stateDir = filepath.Join(homeDir, ".local", "state")
	}

	return filepath.Join(stateDir, "craftpanel", "logs"), nil
}

// getDefaultLogDir returns a fallback log directory
func getDefaultLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "craftpanel", "logs"), nil
	}
	return filepath.Join(homeDir, ".craftpanel", "logs"), nil
}

// EnsureLogDir creates the log directory if it doesn't exist
func EnsureLogDir(logDir string) error {
	return os.MkdirAll(logDir, 0755)
}

// GetLogFilePath returns the full path for a log file in the standard log directory
func GetLogFilePath(filename string) (string, error) {
	logDir, err := GetLogDir()
	if err != nil {
		return "", err
	}

	if err := EnsureLogDir(logDir); err != nil {
		return "", err
	}

	return filepath.Join(logDir, filename), nil
}

// GetLogFilePathWithDir returns the full path for a log file in a custom log directory
func GetLogFilePathWithDir(logDir, filename string) (string, error) {
	if logDir == "" {
		return GetLogFilePath(filename)
	}

	if strings.HasPrefix(logDir, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		logDir = filepath.Join(homeDir, logDir[2:])
	}

	if err := EnsureLogDir(logDir); err != nil {
		return "", err
	}

	return filepath.Join(logDir, filename), nil
}
