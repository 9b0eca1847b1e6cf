// Package runpacket writes run packets: timestamp-named directories holding
// a rendered prompt, the parameters it was rendered with and a metadata
// record with content hashes.
//
// Layout:
//
//	<baseDir>/<YYYYMMDD_HHMMSS>_<template>/
//	    prompt.md
//	    params.resolved.json
//	    meta.json
//
// Packets are created once and never modified.
package runpacket

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/filelock"
	"github.com/teerev/promptkit/internal/models"
	"github.com/teerev/promptkit/internal/version"
)

// Artifact file names inside a packet directory.
const (
	PromptFile = "prompt.md"
	ParamsFile = "params.resolved.json"
	MetaFile   = "meta.json"
	LockFile   = ".pk.lock"
)

// Packet describes an emitted run packet.
type Packet struct {
	Dir  string
	Meta models.RunMeta
}

// Emitter creates run packets.
type Emitter struct {
	Version string
	Clock   func() time.Time
}

// NewEmitter returns an Emitter stamping the current release version and
// reading the wall clock.
func NewEmitter() *Emitter {
	return &Emitter{Version: version.Version, Clock: time.Now}
}

// ComputeHash returns the lowercase hex SHA-256 digest of text.
func ComputeHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Emit writes a new packet for template under baseDir, creating baseDir if
// needed. When a packet with the same second-granularity name already
// exists, a numeric suffix (_2, _3, ...) keeps the new one distinct.
func (e *Emitter) Emit(baseDir, template, rendered string, params map[string]any) (*Packet, error) {
	if params == nil {
		params = map[string]any{}
	}
	now := e.now()

	indented, err := CanonicalJSON(params, true)
	if err != nil {
		return nil, errors.Wrap(err, "encoding resolved parameters")
	}
	compact, err := CanonicalJSON(params, false)
	if err != nil {
		return nil, errors.Wrap(err, "encoding resolved parameters")
	}

	meta := models.RunMeta{
		ParamsHash: ComputeHash(string(compact)),
		PromptHash: ComputeHash(rendered),
		Template:   template,
		Timestamp:  isoTimestamp(now),
		Version:    e.Version,
	}
	metaJSON, err := CanonicalJSON(map[string]any{
		"params_hash": meta.ParamsHash,
		"prompt_hash": meta.PromptHash,
		"template":    meta.Template,
		"timestamp":   meta.Timestamp,
		"version":     meta.Version,
	}, true)
	if err != nil {
		return nil, errors.Wrap(err, "encoding run metadata")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating run directory %s", baseDir)
	}

	var dir string
	err = filelock.WithLock(filepath.Join(baseDir, LockFile), func() error {
		var err error
		dir, err = allocateDir(baseDir, now.UTC().Format("20060102_150405")+"_"+template)
		return err
	})
	if err != nil {
		return nil, err
	}

	artifacts := []struct {
		name string
		data []byte
	}{
		{PromptFile, []byte(rendered)},
		{ParamsFile, indented},
		{MetaFile, metaJSON},
	}
	for _, a := range artifacts {
		if err := filelock.AtomicWrite(filepath.Join(dir, a.name), a.data); err != nil {
			return nil, errors.Wrapf(err, "writing %s", a.name)
		}
	}

	return &Packet{Dir: dir, Meta: meta}, nil
}

func (e *Emitter) now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}

// allocateDir creates the first free directory among name, name_2, name_3...
// It must run under the base directory lock.
func allocateDir(baseDir, name string) (string, error) {
	for n := 1; ; n++ {
		candidate := name
		if n > 1 {
			candidate = name + "_" + strconv.Itoa(n)
		}
		dir := filepath.Join(baseDir, candidate)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", errors.Wrapf(err, "creating run packet %s", dir)
		}
	}
}

// isoTimestamp formats t in UTC as ISO-8601 with a "+00:00" offset. The
// fractional part is microseconds and is left out when zero.
func isoTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/1000 == 0 {
		return t.Format("2006-01-02T15:04:05") + "+00:00"
	}
	return t.Format("2006-01-02T15:04:05.000000") + "+00:00"
}
