//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package rollwriter_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/streambuf/log/rollwriter"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")
	w, err := rollwriter.NewRollWriter(file)
	require.NoError(t, err)
	defer w.Close()

	line := []byte("hello roll writer\n")
	for i := 0; i < 3; i++ {
		n, err := w.Write(line)
		require.NoError(t, err)
		require.Equal(t, len(line), n)
	}

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat(line, 3), got)
}

func TestInvalidPath(t *testing.T) {
	_, err := rollwriter.NewRollWriter("")
	require.Error(t, err)
}

func TestTimePattern(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")
	w, err := rollwriter.NewRollWriter(file, rollwriter.WithTimeFormat(".%Y%m%d"))
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("dated\n"))
	require.NoError(t, err)

	matches, err := filepath.Glob(file + ".*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestSizeRoll(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")
	w, err := rollwriter.NewRollWriter(file,
		rollwriter.WithMaxSize(1), rollwriter.WithMaxBackups(2))
	require.NoError(t, err)
	defer w.Close()

	chunk := bytes.Repeat([]byte("x"), 256*1024)
	for i := 0; i < 8; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	matches, err := filepath.Glob(file + "*")
	require.NoError(t, err)
	// the live file plus at least one rolled backup
	assert.GreaterOrEqual(t, len(matches), 2)
}

func TestReuseAppends(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")

	w, err := rollwriter.NewRollWriter(file)
	require.NoError(t, err)
	_, err = w.Write([]byte("one\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = rollwriter.NewRollWriter(file)
	require.NoError(t, err)
	_, err = w.Write([]byte("two\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(got))
}
