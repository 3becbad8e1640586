// Package fixture provides the built-in demonstration dataset: 20 employees
// with their family members, education history, medical visits and
// disciplinary records.
package fixture

import (
	_ "embed"
	"sync"

	"github.com/FursAndrey/staffsync/pkg/sources"
)

// Name identifies the fixture source in logs and results.
const Name = "fixture"

// Dataset is the raw YAML document.
//
//go:embed dataset.yaml
var Dataset []byte

var (
	once     sync.Once
	snapshot *sources.Snapshot
	loadErr  error
)

// Load decodes the embedded dataset. The result is shared; treat it as read-only.
func Load() (*sources.Snapshot, error) {
	once.Do(func() {
		snap, err := sources.Decode(Name+".yaml", Dataset)
		if err != nil {
			loadErr = err
			return
		}
		snapshot = snap.Renamed(Name)
	})
	return snapshot, loadErr
}

// New returns the dataset as a record source. It panics if the embedded
// document is malformed, which the package tests rule out.
func New() *sources.Snapshot {
	snap, err := Load()
	if err != nil {
		panic(err)
	}
	return snap
}
