package main

// Notes:
// - The host decides whether xsltproc and Chrome exist, so these tests
//   assert structure and status consistency rather than specific findings.

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunDoctorCmd - Output formats and exit code
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSON(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := runDoctorCmd([]string{"--json"}, &Environment{Stdout: &stdout, Stderr: &stderr})

	var got doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}

	switch got.Status {
	case statusReady, statusWarnings:
		if code != ExitSuccess {
			t.Errorf("status %s exited %d", got.Status, code)
		}
	case statusErrors:
		if code != ExitGeneral || len(got.Errors) == 0 {
			t.Errorf("status errors exited %d with %d errors", code, len(got.Errors))
		}
	default:
		t.Errorf("unexpected status %q", got.Status)
	}

	if got.Env.OS == "" || got.Env.Arch == "" {
		t.Errorf("environment not filled: %+v", got.Env)
	}
	if got.Xsltproc.Found != (got.Xsltproc.Path != "") {
		t.Errorf("xsltproc found=%v path=%q", got.Xsltproc.Found, got.Xsltproc.Path)
	}
}

func TestRunDoctorCmd_Human(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	runDoctorCmd(nil, &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}})

	out := stdout.String()
	for _, section := range []string{"mdxsl doctor", "xsltproc", "Chrome/Chromium (--pdf)", "Environment", "System", "Status:"} {
		if !strings.Contains(out, section) {
			t.Errorf("output missing %q:\n%s", section, out)
		}
	}
}

// ---------------------------------------------------------------------------
// TestPrintDoctorResult - Rendering of fixed results
// ---------------------------------------------------------------------------

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result doctorResult
		want   []string
	}{
		{
			name: "ready",
			result: doctorResult{
				Status:   statusReady,
				Xsltproc: xsltprocInfo{Found: true, Path: "/usr/bin/xsltproc", Version: "Using libxml 20914"},
				Chrome:   chromeInfo{Found: true, Path: "/usr/bin/chromium", Sandbox: true},
				Env:      envInfo{OS: "linux", Arch: "amd64"},
				System:   systemInfo{TempWritable: true},
			},
			want: []string{"[OK] Found at /usr/bin/xsltproc", "Using libxml 20914", "Sandbox: enabled", "Status: Ready to convert"},
		},
		{
			name: "missing engine",
			result: doctorResult{
				Status:   statusErrors,
				Env:      envInfo{OS: "linux", Arch: "arm64", Container: true, ContainerHint: "/.dockerenv"},
				Errors:   []string{"xsltproc not found"},
				Warnings: []string{"Chrome/Chromium not found"},
			},
			want: []string{"[ERROR] Not found", "[WARN] Not found", "Container: detected (/.dockerenv)", "[ERROR] xsltproc not found", "Status: Not ready"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			printDoctorResult(&buf, &tt.result)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}
