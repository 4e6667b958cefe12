package inspector

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain lets the test binary re-exec itself as a fake inspector
// subprocess (the standard library's own os/exec tests use this
// helper-process pattern), so the bridge's stdio plumbing can be
// exercised without a real Python interpreter.
func TestMain(m *testing.M) {
	if os.Getenv("DJLS_INSPECTOR_TEST_HELPER") == "1" {
		runFakeInspector()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func runFakeInspector() {
	in := bufio.NewReader(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for {
		line, err := in.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return
		}

		var data json.RawMessage
		switch env.Kind {
		case kindTemplatetags:
			data, _ = json.Marshal(Inventory{
				Libraries: map[string]string{"i18n": "django.templatetags.i18n"},
				Builtins:  []string{"django.template.defaulttags"},
				Tags: []Entry{{
					Name:           "trans",
					Provenance:     Provenance{Library: &LibraryProvenance{LoadName: "i18n", Module: "django.templatetags.i18n"}},
					DefiningModule: "django.templatetags.i18n",
				}},
			})
		case kindPythonEnv:
			data, _ = json.Marshal(PythonEnv{SysPath: []string{"/app"}, InterpreterVersion: "3.12.0"})
		case kindDjangoInit:
			data, _ = json.Marshal(struct {
				Success bool `json:"success"`
			}{Success: true})
		case kindTemplateDirs:
			data, _ = json.Marshal(struct {
				Dirs []string `json:"dirs"`
			}{Dirs: []string{"/app/templates"}})
		}

		resp := envelope{ID: env.ID, Kind: env.Kind, Data: data}
		respLine, _ := json.Marshal(resp)
		out.Write(respLine)
		out.WriteByte('\n')
		out.Flush()

		if err != nil {
			return
		}
	}
}

func helperCommand(t *testing.T) []string {
	t.Helper()
	t.Setenv("DJLS_INSPECTOR_TEST_HELPER", "1")
	return []string{os.Args[0]}
}

func TestBridgeTemplatetagsRoundTrip(t *testing.T) {
	b := NewBridge(helperCommand(t), nil)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	inv, err := b.Templatetags(ctx)
	require.NoError(t, err)
	assert.Equal(t, "django.templatetags.i18n", inv.Libraries["i18n"])
	require.Len(t, inv.Tags, 1)
	assert.Equal(t, "trans", inv.Tags[0].Name)
	require.NotNil(t, inv.Tags[0].Provenance.Library)
	assert.Nil(t, inv.Tags[0].Provenance.Builtin)
}

func TestBridgeReusesSubprocessAcrossCalls(t *testing.T) {
	b := NewBridge(helperCommand(t), nil)
	defer b.Close()
	ctx := context.Background()

	_, err := b.PythonEnv(ctx)
	require.NoError(t, err)
	proc := b.proc
	require.NotNil(t, proc)

	ok, err := b.DjangoInit(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, proc, b.proc, "second call should reuse the running subprocess, not respawn")
}

func TestBridgeTemplateDirs(t *testing.T) {
	b := NewBridge(helperCommand(t), nil)
	defer b.Close()

	dirs, err := b.TemplateDirs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/app/templates"}, dirs)
}

func TestBridgeRespawnRefusesEmptyCommand(t *testing.T) {
	b := NewBridge(nil, nil)
	_, err := b.Templatetags(context.Background())
	assert.Error(t, err)
}
