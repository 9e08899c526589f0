// planio/archive.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/mmp/kinplan/plan"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// ArchiveFilenameSuffix is the conventional suffix for plan archives.
const ArchiveFilenameSuffix = ".kinplan.msgpack.zst"

const ArchiveVersion = 1

var archiveMagic = []byte("KINPLAN")

var ErrNotArchive = errors.New("not a plan archive")

// ArchivedPlan is the stored form of a single plan: its points along
// with the status accumulated while it was generated.
type ArchivedPlan struct {
	Name   string
	Note   string
	Points []plan.NavPoint
	Status []plan.Error
}

func archivePlan(p *plan.Plan) ArchivedPlan {
	ap := ArchivedPlan{Name: p.Name, Note: p.Note}
	for _, np := range p.Points() {
		ap.Points = append(ap.Points, np)
	}
	ap.Status = slices.Clone(p.Errors())
	return ap
}

func (ap ArchivedPlan) plan() (*plan.Plan, error) {
	p := plan.New(ap.Name)
	p.Note = ap.Note
	for _, np := range ap.Points {
		if p.Add(np) < 0 {
			return nil, fmt.Errorf("%s: invalid point at t=%.3f", ap.Name, np.Time)
		}
	}
	for _, e := range ap.Status {
		if e.Warning {
			p.AddWarning(e.Type, e.Index, "%s", e.Msg)
		} else {
			p.AddError(e.Type, e.Index, "%s", e.Msg)
		}
	}
	return p, nil
}

// WriteArchive writes the plans to w as msgpack-encoded records
// compressed with zstd, following a short magic and version header.
func WriteArchive(w io.Writer, plans []*plan.Plan) error {
	if _, err := w.Write(append(bytes.Clone(archiveMagic), ArchiveVersion)); err != nil {
		return fmt.Errorf("failed to write archive header: %w", err)
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	aps := make([]ArchivedPlan, len(plans))
	for i, p := range plans {
		aps[i] = archivePlan(p)
	}
	if err := msgpack.NewEncoder(zw).Encode(aps); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode plans: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

// ReadArchive reads plans written by WriteArchive.
func ReadArchive(r io.Reader) ([]*plan.Plan, error) {
	hdr := make([]byte, len(archiveMagic)+1)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNotArchive
		}
		return nil, err
	}
	if !bytes.Equal(hdr[:len(archiveMagic)], archiveMagic) {
		return nil, ErrNotArchive
	}
	if v := hdr[len(archiveMagic)]; v != ArchiveVersion {
		return nil, fmt.Errorf("archive version %d: unsupported (expected %d)", v, ArchiveVersion)
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var aps []ArchivedPlan
	if err := msgpack.NewDecoder(zr).Decode(&aps); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}

	plans := make([]*plan.Plan, 0, len(aps))
	for _, ap := range aps {
		p, err := ap.plan()
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}
