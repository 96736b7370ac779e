package libvirt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	golibvirt "github.com/digitalocean/go-libvirt"
)

type fakeDomainClient struct {
	doms    []golibvirt.Domain
	info    map[string][5]uint64
	listErr error
	infoErr error
}

func (f *fakeDomainClient) ConnectListAllDomains(int32, golibvirt.ConnectListAllDomainsFlags) ([]golibvirt.Domain, uint32, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.doms, uint32(len(f.doms)), nil
}

func (f *fakeDomainClient) DomainGetInfo(d golibvirt.Domain) (uint8, uint64, uint64, uint16, uint64, error) {
	if f.infoErr != nil {
		return 0, 0, 0, 0, 0, f.infoErr
	}
	i := f.info[d.Name]
	return uint8(i[0]), i[1], i[2], uint16(i[3]), i[4], nil
}

func TestListDomains(t *testing.T) {
	var id golibvirt.UUID
	copy(id[:], []byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef})
	c := &fakeDomainClient{
		doms: []golibvirt.Domain{
			{Name: "web", ID: 3, UUID: id},
			{Name: "db", ID: -1},
		},
		info: map[string][5]uint64{
			"web": {1, 4194304, 2097152, 2, 123456789},
			"db":  {5, 1048576, 0, 1, 0},
		},
	}
	got, err := listDomains(c)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].Name != "db" || got[1].Name != "web" {
		t.Fatalf("expected domains sorted by name; got %+v", got)
	}
	web := got[1]
	if web.State != "running" || web.VCPUCount != 2 || web.ID != 3 {
		t.Fatalf("unexpected web domain %+v", web)
	}
	if web.MemoryBytes != 2097152*1024 || web.MaxMemBytes != 4194304*1024 || web.CPUTimeNs != 123456789 {
		t.Fatalf("unexpected web sizes %+v", web)
	}
	if web.UUID != "12345678-9abc-def0-0123-456789abcdef" {
		t.Fatalf("unexpected uuid %q", web.UUID)
	}
	if got[0].State != "shutoff" {
		t.Fatalf("unexpected db state %q", got[0].State)
	}
}

func TestListDomains_Errors(t *testing.T) {
	if _, err := listDomains(&fakeDomainClient{listErr: errors.New("denied")}); err == nil || !strings.Contains(err.Error(), "ConnectListAllDomains") {
		t.Fatalf("expected list error; got %v", err)
	}
	c := &fakeDomainClient{doms: []golibvirt.Domain{{Name: "x"}}, infoErr: errors.New("gone")}
	if _, err := listDomains(c); err == nil || !strings.Contains(err.Error(), "DomainGetInfo x") {
		t.Fatalf("expected info error; got %v", err)
	}
}

func TestDomainStateString(t *testing.T) {
	if got := domainStateString(3); got != "paused" {
		t.Fatalf("expected paused; got %q", got)
	}
	if got := domainStateString(42); got != "unknown" {
		t.Fatalf("expected unknown; got %q", got)
	}
}

func TestParseURI(t *testing.T) {
	cases := map[string]string{
		"":                       string(golibvirt.QEMUSystem),
		"no-scheme":              string(golibvirt.QEMUSystem),
		"qemu+tcp://host/system": "qemu+tcp://host/system",
		"test:///default":        "test:///default",
	}
	for in, want := range cases {
		got, err := ParseURI(in)
		if err != nil {
			t.Fatalf("%q: unexpected err: %v", in, err)
		}
		if got.String() != want {
			t.Errorf("%q: expected %q; got %q", in, want, got.String())
		}
	}
}

func TestConnManager_ConnectFailure(t *testing.T) {
	m := NewConnManager("qemu:///system", slog.New(slog.NewTextHandler(io.Discard, nil)))
	dialErr := errors.New("no socket")
	m.dial = func(*url.URL) (*golibvirt.Libvirt, error) { return nil, dialErr }

	if err := m.Connect(context.Background()); !errors.Is(err, dialErr) {
		t.Fatalf("expected dial error; got %v", err)
	}
	if m.Connected() {
		t.Fatalf("manager must not report a connection after failure")
	}
	if _, err := NewDomainLister(m).ListDomains(context.Background()); !errors.Is(err, dialErr) {
		t.Fatalf("expected lister to surface dial error; got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Reconnect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close without connection: %v", err)
	}
}
