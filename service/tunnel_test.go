package service

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/igor04091968/tunnel-panel/config"
	"github.com/igor04091968/tunnel-panel/database"
	"github.com/igor04091968/tunnel-panel/database/model"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newTestTunnelService(t *testing.T) (*TunnelService, *gorm.DB) {
	db := newTestDB(t)
	s := NewTunnelService(db)
	s.now = steppingClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return s, db
}

func webFields() TunnelFields {
	return TunnelFields{
		Name:        "web",
		ServiceType: "http",
		Hostname:    "app.example.com",
		LocalPort:   PortOf(3000),
		LocalHost:   "localhost",
		Protocol:    "http",
	}
}

func countTunnels(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.Tunnel{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCreateThenList(t *testing.T) {
	s, _ := newTestTunnelService(t)

	fields := webFields()
	fields.LocalPort = "3000"
	created, err := s.Create("owner-a", fields)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create did not assign an id")
	}
	if created.OwnerID != "owner-a" {
		t.Errorf("OwnerID = %q", created.OwnerID)
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", created.CreatedAt, created.UpdatedAt)
	}

	list, err := s.List("owner-a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := 0
	for _, tun := range list {
		if tun.ID == created.ID {
			found++
			if tun.LocalPort != 3000 {
				t.Errorf("LocalPort = %d, want 3000", tun.LocalPort)
			}
		}
	}
	if found != 1 {
		t.Fatalf("created record found %d times in list", found)
	}
}

func TestListNewestFirst(t *testing.T) {
	s, _ := newTestTunnelService(t)
	var ids []string
	for _, name := range []string{"first", "second", "third"} {
		f := webFields()
		f.Name = name
		tun, err := s.Create("owner", f)
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		ids = append(ids, tun.ID)
	}
	list, err := s.List("owner")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		if list[i].ID != want {
			t.Errorf("list[%d] = %s (%s), want %s", i, list[i].ID, list[i].Name, want)
		}
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	s, _ := newTestTunnelService(t)
	list, err := s.List("nobody")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("list = %#v, want empty slice", list)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *TunnelFields)
		missing string
		invalid string
	}{
		{"no name", func(f *TunnelFields) { f.Name = "" }, "name", ""},
		{"blank name", func(f *TunnelFields) { f.Name = "   " }, "name", ""},
		{"no service type", func(f *TunnelFields) { f.ServiceType = "" }, "serviceType", ""},
		{"no hostname", func(f *TunnelFields) { f.Hostname = "" }, "hostname", ""},
		{"no port", func(f *TunnelFields) { f.LocalPort = "" }, "localPort", ""},
		{"zero port", func(f *TunnelFields) { f.LocalPort = "0" }, "localPort", ""},
		{"no local host", func(f *TunnelFields) { f.LocalHost = "" }, "localHost", ""},
		{"no protocol", func(f *TunnelFields) { f.Protocol = "" }, "protocol", ""},
		{"non numeric port", func(f *TunnelFields) { f.LocalPort = "abc" }, "", "localPort"},
		{"port too large", func(f *TunnelFields) { f.LocalPort = "65536" }, "", "localPort"},
		{"negative port", func(f *TunnelFields) { f.LocalPort = "-1" }, "", "localPort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, db := newTestTunnelService(t)
			f := webFields()
			tt.mutate(&f)
			_, err := s.Create("owner", f)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %T, want *ValidationError", err)
			}
			if tt.missing != "" && (len(verr.Missing) != 1 || verr.Missing[0] != tt.missing) {
				t.Errorf("Missing = %v, want [%s]", verr.Missing, tt.missing)
			}
			if tt.invalid != "" && (len(verr.Invalid) != 1 || verr.Invalid[0] != tt.invalid) {
				t.Errorf("Invalid = %v, want [%s]", verr.Invalid, tt.invalid)
			}
			if n := countTunnels(t, db); n != 0 {
				t.Errorf("%d tunnels persisted after validation failure", n)
			}
		})
	}
}

func TestOwnerIsolation(t *testing.T) {
	s, db := newTestTunnelService(t)
	tun, err := s.Create("owner-a", webFields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := s.List("owner-b")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("owner-b sees %d tunnels", len(list))
	}

	f := webFields()
	f.Name = "hijacked"
	if _, err := s.Update("owner-b", tun.ID, f); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update by other owner: err = %v, want ErrNotFound", err)
	}
	if err := s.Delete("owner-b", tun.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete by other owner: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get("owner-b", tun.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get by other owner: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Commands("owner-b", tun.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Commands by other owner: err = %v, want ErrNotFound", err)
	}

	got, err := s.Get("owner-a", tun.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "web" {
		t.Errorf("record changed by foreign update: name = %q", got.Name)
	}
	if n := countTunnels(t, db); n != 1 {
		t.Errorf("tunnel count = %d, want 1", n)
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	s, _ := newTestTunnelService(t)
	tun, err := s.Create("owner", webFields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f := TunnelFields{
		Name:        "desktop",
		ServiceType: "rdp",
		Hostname:    "rdp.example.com",
		LocalPort:   "3389",
		LocalHost:   "10.0.0.9",
		Protocol:    "rdp",
	}
	updated, err := s.Update("owner", tun.ID, f)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != tun.ID || updated.OwnerID != tun.OwnerID {
		t.Errorf("identity changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(tun.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", tun.CreatedAt, updated.CreatedAt)
	}
	if updated.UpdatedAt.Before(tun.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: %v -> %v", tun.UpdatedAt, updated.UpdatedAt)
	}

	stored, err := s.Get("owner", tun.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Name != "desktop" || stored.LocalPort != 3389 || stored.LocalHost != "10.0.0.9" || stored.Protocol != "rdp" {
		t.Errorf("stored = %+v", stored)
	}
	if !stored.CreatedAt.Equal(tun.CreatedAt) {
		t.Errorf("stored CreatedAt = %v, want %v", stored.CreatedAt, tun.CreatedAt)
	}
	if !stored.UpdatedAt.After(tun.UpdatedAt) {
		t.Errorf("stored UpdatedAt = %v, want after %v", stored.UpdatedAt, tun.UpdatedAt)
	}
}

func TestUpdateValidationLeavesRecord(t *testing.T) {
	s, _ := newTestTunnelService(t)
	tun, err := s.Create("owner", webFields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f := webFields()
	f.Hostname = ""
	f.Name = "renamed"
	if _, err := s.Update("owner", tun.ID, f); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	stored, _ := s.Get("owner", tun.ID)
	if stored.Name != "web" {
		t.Errorf("name = %q after failed update", stored.Name)
	}
}

func TestDelete(t *testing.T) {
	s, db := newTestTunnelService(t)
	tun, err := s.Create("owner", webFields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete("owner", tun.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := countTunnels(t, db); n != 0 {
		t.Fatalf("tunnel count = %d after delete", n)
	}
	if err := s.Delete("owner", tun.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNonexistent(t *testing.T) {
	s, db := newTestTunnelService(t)
	if _, err := s.Create("owner", webFields()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete("owner", "does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if n := countTunnels(t, db); n != 1 {
		t.Fatalf("tunnel count = %d, want 1", n)
	}
}

func TestCommands(t *testing.T) {
	s, _ := newTestTunnelService(t)
	tun, err := s.Create("owner", webFields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cmds, err := s.Commands("owner", tun.ID)
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	if cmds.ConfigCommand != "cloudflared tunnel create web" {
		t.Errorf("ConfigCommand = %q", cmds.ConfigCommand)
	}
	if cmds.RunCommand != "cloudflared tunnel --hostname app.example.com run web --url http://localhost:3000" {
		t.Errorf("RunCommand = %q", cmds.RunCommand)
	}
}

func TestGetByName(t *testing.T) {
	s, _ := newTestTunnelService(t)
	if _, err := s.Create("owner", webFields()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	newer, err := s.Create("owner", webFields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := s.GetByName("owner", "web")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("GetByName returned %s, want newest %s", got.ID, newer.ID)
	}
	if _, err := s.GetByName("other", "web"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMutationsRecordChanges(t *testing.T) {
	s, db := newTestTunnelService(t)
	tun, err := s.Create("owner", webFields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Update("owner", tun.ID, webFields()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Delete("owner", tun.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Failed mutations leave no trace.
	s.Delete("owner", tun.ID)

	changes, err := NewChangeService(db).GetChanges("owner", 10)
	if err != nil {
		t.Fatalf("GetChanges: %v", err)
	}
	var actions []string
	for _, c := range changes {
		actions = append(actions, c.Action)
	}
	want := []string{"del", "edit", "new"}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("actions = %v, want %v", actions, want)
		}
	}
	var obj model.Tunnel
	if err := json.Unmarshal(changes[2].Obj, &obj); err != nil || obj.ID != tun.ID {
		t.Errorf("change obj = %s (%v)", changes[2].Obj, err)
	}
}

func TestPortValueUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want PortValue
	}{
		{`3000`, "3000"},
		{`"3000"`, "3000"},
		{`" 22 "`, "22"},
		{`null`, ""},
		{`""`, ""},
		{`3000.5`, "3000.5"},
		{`true`, "true"},
	}
	for _, tt := range tests {
		var f TunnelFields
		if err := json.Unmarshal([]byte(`{"localPort":`+tt.in+`}`), &f); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if f.LocalPort != tt.want {
			t.Errorf("%s: got %q, want %q", tt.in, f.LocalPort, tt.want)
		}
	}
}

func TestStorageErrorWrapsDetail(t *testing.T) {
	s, db := newTestTunnelService(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	sqlDB.Close()

	_, err = s.List("owner")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Op != "list tunnels" {
		t.Fatalf("err = %#v", err)
	}
}
