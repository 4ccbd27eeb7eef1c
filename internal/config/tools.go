// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// sdkRootEnvVars lists the accepted SDK root variables, in precedence order.
var sdkRootEnvVars = []string{"ANDROID_SDK_ROOT", "ANDROID_HOME"}

// ResolvedSDKRoot returns the effective Android SDK root: config override first,
// then the environment variables.
func (c *Config) ResolvedSDKRoot() string {
	if c != nil && c.SDKRoot != "" {
		return c.SDKRoot
	}
	return SDKRootFromEnv()
}

// SDKRootFromEnv reads the SDK root from the environment.
func SDKRootFromEnv() string {
	for _, key := range sdkRootEnvVars {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// DefaultSDKPaths lists the conventional per-OS SDK install locations.
func DefaultSDKPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{filepath.Join(home, "Library", "Android", "sdk")}
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return []string{filepath.Join(local, "Android", "Sdk")}
		}
		return []string{filepath.Join(home, "AppData", "Local", "Android", "Sdk")}
	default:
		return []string{filepath.Join(home, "Android", "Sdk")}
	}
}

// EmulatorPath resolves the emulator launcher binary: explicit config path,
// SDK root, conventional install paths, then bare-name PATH lookup.
func (c *Config) EmulatorPath() string {
	return c.resolveTool(c.fileOverride("emulator"), filepath.Join("emulator", "emulator"), "emulator")
}

// ADBPath resolves the device bridge binary with the same precedence.
func (c *Config) ADBPath() string {
	return c.resolveTool(c.fileOverride("adb"), filepath.Join("platform-tools", "adb"), "adb")
}

// XcrunPath resolves the Apple toolchain shim; xcrun lives on PATH on any
// usable macOS install, so only the config override applies.
func (c *Config) XcrunPath() string {
	if c != nil && c.Xcrun != "" {
		return c.Xcrun
	}
	return "xcrun"
}

func (c *Config) fileOverride(tool string) string {
	if c == nil {
		return ""
	}
	switch tool {
	case "emulator":
		return c.Emulator
	case "adb":
		return c.ADB
	}
	return ""
}

func (c *Config) resolveTool(override, sdkRelative, bare string) string {
	if override != "" {
		return override
	}
	roots := []string{}
	if root := c.ResolvedSDKRoot(); root != "" {
		roots = append(roots, root)
	}
	roots = append(roots, DefaultSDKPaths()...)
	for _, root := range roots {
		candidate := filepath.Join(root, sdkRelative)
		if runtime.GOOS == "windows" {
			candidate += ".exe"
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if path, err := exec.LookPath(bare); err == nil {
		return path
	}
	return bare
}
