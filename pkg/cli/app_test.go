package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/vinecop/pkg/bicop"
	"github.com/mchmarny/vinecop/pkg/logging"
	"github.com/mchmarny/vinecop/pkg/vinecop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	logging.SetDefaultCLILogger("error")
	keyring.MockInit()
	os.Exit(m.Run())
}

func runApp(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = io.Discard
	app.Reader = bytes.NewReader(nil)
	err := app.Run(context.Background(), append([]string{appName, "--" + flagConfigDir, dir}, args...))
	return buf.String(), err
}

func testModel(t *testing.T) *vinecop.Vinecop {
	t.Helper()
	clayton, err := bicop.New(bicop.Clayton, 90, []float64{1})
	require.NoError(t, err)
	student, err := bicop.New(bicop.Student, 180, []float64{1, 2})
	require.NoError(t, err)
	gauss, err := bicop.New(bicop.Gaussian, 270, []float64{1})
	require.NoError(t, err)

	v, err := vinecop.NewFromPairCopulas([][]*bicop.Bicop{
		{clayton, student, clayton},
		{student, gauss},
		{gauss},
	}, [][]int{{1, 1, 1, 1}, {1, 1, 1, 0}, {1, 1, 0, 0}, {1, 0, 0, 0}})
	require.NoError(t, err)
	return v
}

func writeTestModel(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, vinecop.WriteFile(path, testModel(t)))
	return path
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", formatJSON, false},
		{"json", formatJSON, false},
		{"YAML", formatYAML, false},
		{" yml ", formatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApp_UnknownFormat(t *testing.T) {
	_, err := runApp(t, t.TempDir(), "--"+flagFormat, "xml", "families")
	assert.Error(t, err)
}

func TestFamiliesCmd(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "families")
	require.NoError(t, err)

	var list []familyView
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, len(bicop.Families()))
	assert.Equal(t, "indep", list[0].Name)
	assert.Equal(t, "0", list[0].Params)

	byName := make(map[string]familyView, len(list))
	for _, f := range list {
		byName[f.Name] = f
	}
	assert.Equal(t, "2", byName["student"].Params)
	assert.Equal(t, []int{0, 90, 180, 270}, byName["clayton"].Rotations)
	assert.Contains(t, byName["tll"].Groups, "nonparametric")
}

func TestFamiliesCmd_YAML(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "--"+flagFormat, formatYAML, "families")
	require.NoError(t, err)
	assert.Contains(t, out, "name: gaussian")
}

func TestBicopCmd(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "bicop", "--family", "clayton", "-r", "180", "-p", "2")
	require.NoError(t, err)

	var v bicopView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "clayton", v.Family)
	assert.Equal(t, 180, v.Rotation)
	assert.Equal(t, []float64{2}, v.Parameters)
	require.NotNil(t, v.Tau)
	assert.InDelta(t, 0.5, *v.Tau, 1e-12)
}

func TestBicopCmd_Code(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "bicop", "--code", "2", "-p", "0.5", "-p", "4")
	require.NoError(t, err)

	var v bicopView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "student", v.Family)
	assert.Equal(t, []float64{0.5, 4}, v.Parameters)
}

func TestBicopCmd_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing family", []string{"bicop", "-p", "1"}},
		{"family and code", []string{"bicop", "--family", "clayton", "--code", "3", "-p", "1"}},
		{"unknown family", []string{"bicop", "--family", "nope"}},
		{"bad rotation", []string{"bicop", "--family", "clayton", "-r", "45", "-p", "1"}},
		{"bad parameter", []string{"bicop", "--family", "gaussian", "-p", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, t.TempDir(), tt.args...)
			assert.Error(t, err)
		})
	}
}
