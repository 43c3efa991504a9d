package nav

import (
	"reflect"
	"testing"
)

func TestCrumbs(t *testing.T) {
	got := Crumbs("/vms/web-1/console")
	want := []Crumb{
		{Label: "Home", Path: "/"},
		{Label: "Machines", Path: "/vms"},
		{Label: "web-1", Path: "/vms/web-1"},
		{Label: "Console", Path: "/vms/web-1/console"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Crumbs = %+v, want %+v", got, want)
	}
}

func TestCrumbs_Root(t *testing.T) {
	for _, p := range []string{"", "/", "//"} {
		got := Crumbs(p)
		if len(got) != 1 || got[0].Label != "Home" {
			t.Errorf("Crumbs(%q) = %+v", p, got)
		}
	}
}

func TestCrumbs_IgnoresEmptySegments(t *testing.T) {
	got := Crumbs("vms//db-1/")
	if Render(got, " > ") != "Home > Machines > db-1" {
		t.Fatalf("got %q", Render(got, " > "))
	}
	if got[2].Path != "/vms/db-1" {
		t.Fatalf("path = %q", got[2].Path)
	}
}

func TestJoin(t *testing.T) {
	cases := []struct {
		segs []string
		want string
	}{
		{nil, "/"},
		{[]string{"vms", "web-1"}, "/vms/web-1"},
		{[]string{"/vms/", "", " web-1 "}, "/vms/web-1"},
	}
	for _, tc := range cases {
		if got := Join(tc.segs...); got != tc.want {
			t.Errorf("Join(%q) = %q, want %q", tc.segs, got, tc.want)
		}
	}
}
