// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata stamped into the binary at link time:
//
//	go build -ldflags "-X soundstrip/pkg/build.buildName=soundstrip \
//	    -X soundstrip/pkg/build.buildVersion=v0.3.0 ..."
//
// Development builds carry no ldflags; Initialize reports what is missing
// and the defaults stay in place.
package build

import (
	"errors"
	"fmt"
)

// Info is the build metadata shown by --version and logged at start-up.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the info the way --version prints it.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	info = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:        "soundstrip",
		Description: "Audio-reactive LED strip engine",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies every ldflags value that was set into the build info.
// The returned error joins one entry per missing flag; callers log it and
// carry on with the defaults.
func Initialize() error {
	var errs []error
	set := func(dst *string, src, flag string) {
		if src == "" {
			errs = append(errs, fmt.Errorf("%s is not set", flag))
			return
		}
		*dst = src
	}

	set(&info.Name, buildName, "buildName")
	set(&info.Time, buildTime, "buildTime")
	set(&info.Commit, buildCommit, "buildCommit")
	set(&info.Version, buildVersion, "buildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return info
}
