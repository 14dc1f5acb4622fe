package service

import (
	"testing"

	"github.com/planted/internal/db"
)

func TestSettingsDefaults(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewSettingService(db.DB)

	settings, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if settings.SiteName != "Planted" {
		t.Fatalf("default site name = %s, want Planted", settings.SiteName)
	}
	if settings.Latitude != nil || settings.Longitude != nil {
		t.Fatal("coordinates must be unset by default")
	}
}

func TestSettingsUpdateRoundTrip(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewSettingService(db.DB)

	updated, err := svc.UpdateSettings(SiteSettingsInput{
		SiteName:     "后院菜园",
		LocationName: "Brooklyn, NY",
		Latitude:     "40.6782",
		Longitude:    "-73.9442",
	})
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}
	if updated.SiteName != "后院菜园" || updated.LocationName != "Brooklyn, NY" {
		t.Fatalf("unexpected settings: %+v", updated)
	}
	if updated.Latitude == nil || *updated.Latitude != 40.6782 {
		t.Fatalf("latitude = %v, want 40.6782", updated.Latitude)
	}

	// 清空坐标并回退默认站点名
	updated, err = svc.UpdateSettings(SiteSettingsInput{SiteName: "  ", Latitude: "", Longitude: ""})
	if err != nil {
		t.Fatalf("second UpdateSettings returned error: %v", err)
	}
	if updated.SiteName != "Planted" {
		t.Fatalf("blank site name should fall back to Planted, got %s", updated.SiteName)
	}
	if updated.Latitude != nil {
		t.Fatalf("latitude should be cleared, got %v", *updated.Latitude)
	}
}

func TestSettingsRejectInvalidCoordinates(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewSettingService(db.DB)

	if _, err := svc.UpdateSettings(SiteSettingsInput{Latitude: "north-ish"}); err == nil {
		t.Fatal("expected error for non numeric latitude")
	}
}
