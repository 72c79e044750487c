package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"retail-dashboard/internal/backend/backendtest"
	"retail-dashboard/internal/export"
	"retail-dashboard/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seededBackend(t *testing.T) *backendtest.Fake {
	t.Helper()
	fake := backendtest.New()
	t.Cleanup(fake.Close)
	fake.Seed()
	t.Setenv("BACKEND_URL", fake.URL)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv(tokenEnv, "")
	t.Setenv("CONFIG_FILE", "")
	return fake
}

func TestExportCommand(t *testing.T) {
	fake := seededBackend(t)
	token := fake.AddUser("RetailerCooperative", models.User{ID: "u1", WorksAt: "c1"})
	dir := t.TempDir()

	out, err := run(t, "export", "--token", token, "--from", "2024-01-01", "--to", "2024-01-31", "--out", dir)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	path := strings.TrimSpace(out)
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), export.ReportLabel) {
		t.Errorf("unexpected output path %q", path)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("report not written: %v", err)
	}
}

func TestExportCommand_ShopAndNoData(t *testing.T) {
	fake := seededBackend(t)
	token := fake.AddUser("TradeBureau", models.User{ID: "u1", WorksAt: "tb"})
	t.Setenv(tokenEnv, token)
	dir := t.TempDir()

	out, err := run(t, "export", "--shop", "s1", "--out", dir)
	if err != nil {
		t.Fatalf("shop export failed: %v", err)
	}
	if !strings.Contains(out, "Shop_One") {
		t.Errorf("shop report name should carry the shop, got %q", out)
	}

	if _, err := run(t, "export", "--status", "failed", "--commodity", "sugar", "--out", dir); err == nil {
		t.Error("exporting an empty view should fail")
	}
}

func TestSummaryCommand(t *testing.T) {
	fake := seededBackend(t)

	tests := []struct {
		name string
		role string
		user models.User
		args []string
		want []string
	}{
		{"cooperative", "RetailerCooperative", models.User{ID: "u1", WorksAt: "c1"}, nil,
			[]string{"Records:", "3", "Revenue:", "110.00 birr"}},
		{"cashier sugar", "RetailerCooperativeShop", models.User{ID: "u2", WorksAt: "s1"}, []string{"--commodity", "sugar"},
			[]string{"Transactions:", "Quantity:", "10", "50.00 birr"}},
		{"trade bureau", "TradeBureau", models.User{ID: "u3", WorksAt: "tb"}, nil,
			[]string{"Records:", "4", "not available for this role"}},
		{"trade bureau shop", "TradeBureau", models.User{ID: "u3", WorksAt: "tb"}, []string{"--shop", "s1"},
			[]string{"Shop One", "90.00 birr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := fake.AddUser(tt.role, tt.user)
			out, err := run(t, append([]string{"summary", "--token", token}, tt.args...)...)
			if err != nil {
				t.Fatalf("summary failed: %v", err)
			}
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output should contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestRootCommand_Errors(t *testing.T) {
	seededBackend(t)

	if _, err := run(t, "summary"); err == nil || !strings.Contains(err.Error(), tokenEnv) {
		t.Errorf("missing token error = %v", err)
	}
	if _, err := run(t, "summary", "--token", "garbage"); err == nil {
		t.Error("undecodable token should fail")
	}
	token := backendtest.Token("TradeBureau", "u9")
	if _, err := run(t, "summary", "--token", token, "--from", "2024-13-01"); err == nil {
		t.Error("bad date should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Version:    "+Version) {
		t.Errorf("version output = %q", out)
	}
}
