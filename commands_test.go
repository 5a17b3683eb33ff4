package main

import (
	"os"
	"path/filepath"
	"testing"

	"api-doc-explorer/internal/config"
	"api-doc-explorer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectEndpoints(t *testing.T) {
	endpoints := []types.Endpoint{
		{Method: "GET", Path: "/pets"},
		{Method: "GET", Path: "/pets/{petId}"},
		{Method: "PUT", Path: "/pets/{petId}"},
	}

	all, err := selectEndpoints(endpoints, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	one, err := selectEndpoints(endpoints, []string{"put", "/pets/{petId}"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "PUT /pets/{petId}", one[0].Key())

	_, err = selectEndpoints(endpoints, []string{"GET"})
	assert.ErrorContains(t, err, "expected METHOD ROUTE")

	_, err = selectEndpoints(endpoints, []string{"DELETE", "/pets"})
	assert.ErrorContains(t, err, "not found")
}

func TestApplyFlags(t *testing.T) {
	reset := func() {
		specSource, logLevel, formats = "", "", nil
	}
	t.Cleanup(reset)

	tests := []struct {
		name    string
		spec    string
		level   string
		formats []string
		wantErr string
	}{
		{name: "valid overrides", spec: "openapi.yaml", level: "debug", formats: []string{"json"}},
		{name: "missing spec", wantErr: "no OpenAPI document given"},
		{name: "bad format", spec: "openapi.yaml", formats: []string{"xml"}, wantErr: "oneof"},
		{name: "bad level", spec: "openapi.yaml", level: "loud", wantErr: "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset()
			specSource, logLevel, formats = tt.spec, tt.level, tt.formats

			c := config.Default()
			err := applyFlags(c)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "openapi.yaml", c.Spec.Source)
			assert.Equal(t, "debug", c.Logging.Level)
			assert.Equal(t, []string{"json"}, c.Reporting.Format)
		})
	}
}

func TestRunClosesLogOnFailure(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("logging:\n  dir: "+filepath.Join(dir, "logs")+"\n"), 0644))

	t.Cleanup(func() {
		configPath, specSource, logLevel, formats = "", "", "", nil
		rootCmd.SetArgs(nil)
		log = nil
	})
	rootCmd.SetArgs([]string{"explore", "--config", configFile, "--spec", filepath.Join(dir, "missing.yaml")})

	assert.Equal(t, 1, run())
	require.NotNil(t, log)
	assert.ErrorIs(t, log.Close(), os.ErrClosed, "log file closed by run")
}
