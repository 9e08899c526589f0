// planio/archive_test.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mmp/kinplan/plan"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	plans := kinematicPlans(t)
	plans[0].Note = "first"
	plans[1].AddWarning(plan.Unknown, 2, "just so you know")
	plans[1].AddError(plan.GsAccelDist, 1, "too short")

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, plans))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("KINPLAN\x01")))

	read, err := ReadArchive(&buf)
	require.NoError(t, err)
	require.Len(t, read, len(plans))
	for i, p := range plans {
		assert.Equal(t, p.Name, read[i].Name)
		assert.Equal(t, p.Note, read[i].Note)
		if diff := cmp.Diff(pointsOf(p), pointsOf(read[i]), approx); diff != "" {
			t.Errorf("%s: points differ (-want +got):\n%s", p.Name, diff)
		}
		assert.Equal(t, p.Errors(), read[i].Errors())
	}
	assert.True(t, errors.Is(read[1].Err(), plan.ErrGsAccelDist))
	assert.Len(t, read[1].Warnings(), 1)

	// An empty archive is still an archive.
	buf.Reset()
	require.NoError(t, WriteArchive(&buf, nil))
	read, err = ReadArchive(&buf)
	require.NoError(t, err)
	assert.Empty(t, read)
}

func TestReadArchiveErrors(t *testing.T) {
	_, err := ReadArchive(bytes.NewReader([]byte("name,sx,sy,sz,time\n")))
	assert.ErrorIs(t, err, ErrNotArchive)

	_, err = ReadArchive(bytes.NewReader([]byte("KIN")))
	assert.ErrorIs(t, err, ErrNotArchive)

	_, err = ReadArchive(bytes.NewReader([]byte("KINPLAN\x07")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version 7")

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, kinematicPlans(t)))
	b := buf.Bytes()
	_, err = ReadArchive(bytes.NewReader(b[:len(b)/2]))
	assert.Error(t, err)
}
