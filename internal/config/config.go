// Package config owns the process-wide configuration singleton: the
// precedence chain, typed getters, live reload, and forward-only
// migration of the on-disk schema.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/azedarach/azedarach/internal/logx"
)

var v *viper.Viper

// CurrentSchemaVersion is the highest config schema this build understands.
// A config file declaring a higher version is a Fatal error at startup.
const CurrentSchemaVersion = 1

// ReloadFunc is invoked whenever the watched config file changes on disk,
// after the new values have replaced the old.
type ReloadFunc func()

// Initialize sets up the viper singleton, walking the precedence chain:
// project .azedarach.json > package.json's "azedarach" key > built-in
// defaults. Precedence is reflected in load order, not viper's merge
// logic, because the two files are structurally different (package.json
// nests under a key).
func Initialize(startDir string) error {
	v = viper.New()
	v.SetConfigType("json")

	configFileSet := false

	if startDir == "" {
		cwd, err := os.Getwd()
		if err == nil {
			startDir = cwd
		}
	}

	if startDir != "" {
		for dir := startDir; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			projectConfig := filepath.Join(dir, ".azedarach.json")
			if _, err := os.Stat(projectConfig); err == nil {
				v.SetConfigFile(projectConfig)
				configFileSet = true
				break
			}
			pkgJSON := filepath.Join(dir, "package.json")
			if raw, err := os.ReadFile(pkgJSON); err == nil {
				if sub, ok := extractPackageJSONKey(raw); ok {
					v.SetConfigFile(pkgJSON)
					if err := v.MergeConfig(strings.NewReader(sub)); err == nil {
						configFileSet = true
						break
					}
				}
			}
		}
	}

	v.SetEnvPrefix("AZEDARACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configFileSet && v.ConfigFileUsed() != "" && !strings.HasSuffix(v.ConfigFileUsed(), "package.json") {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := checkVersion(v); err != nil {
		return err
	}

	if configFileSet {
		logx.Debugf("loaded config from %s", v.ConfigFileUsed())
	} else {
		logx.Debugf("no .azedarach.json found; using defaults and environment variables")
	}

	return nil
}

func extractPackageJSONKey(raw []byte) (string, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", false
	}
	sub, ok := doc["azedarach"]
	if !ok {
		return "", false
	}
	return string(sub), true
}

func checkVersion(v *viper.Viper) error {
	if !v.IsSet("version") {
		return nil
	}
	ver := v.GetInt("version")
	if ver > CurrentSchemaVersion {
		return fmt.Errorf("config declares version %d, this build understands up to %d: upgrade azedarach", ver, CurrentSchemaVersion)
	}
	if ver < CurrentSchemaVersion {
		migrated, err := Migrate(v.AllSettings(), ver)
		if err != nil {
			return fmt.Errorf("migrating config from version %d: %w", ver, err)
		}
		for k, val := range migrated {
			v.Set(k, val)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", CurrentSchemaVersion)
	v.SetDefault("cliTool", "claude")
	v.SetDefault("theme", "default")

	v.SetDefault("git.baseBranch", "main")
	v.SetDefault("git.workflowMode", "worktree")
	v.SetDefault("git.defaultMergeStrategy", "merge")
	v.SetDefault("git.showLineChanges", true)

	v.SetDefault("session.command", "")
	v.SetDefault("session.shell", os.Getenv("SHELL"))
	v.SetDefault("session.tmuxPrefix", "ai")
	v.SetDefault("session.timeoutMs", 0)
	v.SetDefault("session.logDir", defaultLogDir())
	v.SetDefault("session.initCommands", []string{})

	v.SetDefault("pr.draftByDefault", false)
	v.SetDefault("pr.autoLink", true)
	v.SetDefault("pr.notifyAfterCreate", true)
	v.SetDefault("pr.createWithoutMerge", false)

	v.SetDefault("merge.strategy", "merge")
	v.SetDefault("merge.autoMerge", false)
	v.SetDefault("merge.compareWithOrigin", false)

	v.SetDefault("devServer.basePort", 3000)
	v.SetDefault("devServer.maxPort", 3999)
	v.SetDefault("devServer.environments", map[string]string{})
	v.SetDefault("devServer.servers", []any{})

	v.SetDefault("worktree.basePath", "")
	v.SetDefault("worktree.nameFormat", "{project}-{beadID}")
	v.SetDefault("worktree.autoCleanup", true)
	v.SetDefault("worktree.keepDays", 7)

	v.SetDefault("network.checkInterval", "30s")
	v.SetDefault("network.offlineTimeout", "5s")
	v.SetDefault("network.retryAttempts", 3)

	v.SetDefault("notifications.completedTask", true)
	v.SetDefault("notifications.failedTask", true)
	v.SetDefault("notifications.errorThreshold", 3)

	v.SetDefault("beads.path", "")
	v.SetDefault("beads.syncInterval", "10s")

	v.SetDefault("board.blockingStatusLabel", "Blocked") // or "Review"
	v.SetDefault("board.maxToasts", 3)
}

func defaultLogDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "azedarach", "logs")
	}
	return ".azedarach/logs"
}

// Watch starts an fsnotify watch on the resolved config file and invokes
// fn each time it changes. A no-op if no config file was found at
// Initialize time.
func Watch(fn ReloadFunc) (Closer, error) {
	if v == nil || v.ConfigFileUsed() == "" {
		return nopCloser{}, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watch: %w", err)
	}
	path := v.ConfigFileUsed()
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watch: %w", err)
	}
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := v.ReadInConfig(); err != nil {
					logx.Debugf("config reload failed: %v", err)
					continue
				}
				fn()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logx.Debugf("config watch error: %v", err)
			}
		}
	}()
	return w, nil
}

// Closer is satisfied by *fsnotify.Watcher; named here so Watch callers
// don't need to import fsnotify themselves.
type Closer interface{ Close() error }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

func GetStringSlice(key string) []string {
	if v == nil {
		return nil
	}
	return v.GetStringSlice(key)
}

func GetStringMapString(key string) map[string]string {
	if v == nil {
		return nil
	}
	return v.GetStringMapString(key)
}

func Set(key string, value any) {
	if v != nil {
		v.Set(key, value)
	}
}

func AllSettings() map[string]any {
	if v == nil {
		return map[string]any{}
	}
	return v.AllSettings()
}

// BlockingStatusLabel resolves the deployment's chosen name for the
// "middle blocking" bead status: "Blocked" or "Review", per §9 Open
// Questions. Defaults to "Blocked".
func BlockingStatusLabel() string {
	label := GetString("board.blockingStatusLabel")
	if label == "" {
		return "Blocked"
	}
	return label
}
