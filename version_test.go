package cacheman

import "testing"

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("GetVersion() = %q, want %q", GetVersion(), Version)
	}
	if Version == "" {
		t.Error("Version should not be empty")
	}
}
