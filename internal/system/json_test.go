package system

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shirou/gopsutil/v4/disk"
)

const tailscaleStatusSample = `{
  "Version": "1.84.3",
  "TUN": true,
  "BackendState": "Running",
  "TailscaleIPs": ["100.73.252.58", "fd7a:115c:a1e0::c436:fc3a"],
  "Self": {
    "ID": "aaa-aaa",
    "PublicKey": "nodekey:aaa-aaa",
    "HostName": "test-host",
    "DNSName": "test-host.tailnet.",
    "OS": "linux",
    "UserID": 123456789,
    "TailscaleIPs": ["100.73.252.58", "fd7a:115c:a1e0::c436:fc3a"],
    "Addrs": ["1.2.3.4:5678"],
    "Relay": "fra",
    "Online": true,
    "PeerAPIURL": ["http://100.73.252.58:39006"],
    "CapMap": null
  },
  "Health": [],
  "MagicDNSSuffix": "tailnet",
  "CurrentTailnet": {"Name": "test@test.com", "MagicDNSSuffix": "tailnet", "MagicDNSEnabled": false},
  "CertDomains": null,
  "Peer": {
    "nodekey:bbb": {
      "HostName": "redacted-peer-host3",
      "OS": "android",
      "TailscaleIPs": ["100.85.63.23"],
      "PeerAPIURL": "http://100.85.63.23:46000",
      "Online": false
    },
    "nodekey:ccc": {
      "HostName": "alpha",
      "OS": "macOS",
      "TailscaleIPs": ["100.64.0.9", "fd7a:115c:a1e0::9"],
      "Online": true
    }
  },
  "User": {"123456789": {"ID": 123456789, "LoginName": "redacted@example.com", "DisplayName": "Redacted User"}}
}`

func TestParseTailscaleStatus(t *testing.T) {
	status, err := ParseTailscaleStatus([]byte(tailscaleStatusSample))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if *status.BackendState != "Running" || *status.Self.HostName != "test-host" {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.CurrentTailnet == nil || status.CurrentTailnet.Name != "test@test.com" {
		t.Fatalf("unexpected tailnet %+v", status.CurrentTailnet)
	}
	if got := status.Self.PeerAPIURL.Values(); !reflect.DeepEqual(got, []string{"http://100.73.252.58:39006"}) {
		t.Fatalf("unexpected self PeerAPIURL %v", got)
	}

	peers := status.Peers()
	if len(peers) != 2 {
		t.Fatalf("expected 2 peers; got %d", len(peers))
	}
	if peers[0].Name != "alpha" || peers[0].IP != "100.64.0.9" || peers[0].Status != "Online" || !peers[0].Online || peers[0].OS != "macOS" {
		t.Fatalf("unexpected first peer %+v", peers[0])
	}
	if peers[1].Name != "redacted-peer-host3" || peers[1].Status != "Offline" || peers[1].Online {
		t.Fatalf("unexpected second peer %+v", peers[1])
	}
}

func TestParseTailscaleStatus_WithoutPeers(t *testing.T) {
	raw := `{"BackendState": "Running", "Self": {"HostName": "solo", "Online": true}}`
	status, err := ParseTailscaleStatus([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if peers := status.Peers(); peers == nil || len(peers) != 0 {
		t.Fatalf("expected empty peer list; got %#v", peers)
	}
}

func TestParseTailscaleStatus_MissingRequired(t *testing.T) {
	cases := map[string]string{
		"backend state": `{"Self": {}}`,
		"self":          `{"BackendState": "Running"}`,
		"peer hostname": `{"BackendState": "Running", "Self": {}, "Peer": {"k": {"Online": true}}}`,
		"peer online":   `{"BackendState": "Running", "Self": {}, "Peer": {"k": {"HostName": "x"}}}`,
	}
	for name, raw := range cases {
		if _, err := ParseTailscaleStatus([]byte(raw)); !errors.Is(err, ErrMissingField) {
			t.Errorf("%s: expected ErrMissingField, got %v", name, err)
		}
	}
}

func TestStringOrList(t *testing.T) {
	var single, list StringOrList
	if err := json.Unmarshal([]byte(`"http://a"`), &single); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := json.Unmarshal([]byte(`["http://a", "http://b"]`), &list); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if single.IsList() || !reflect.DeepEqual(single.Values(), []string{"http://a"}) {
		t.Fatalf("unexpected single %+v", single)
	}
	if !list.IsList() || !reflect.DeepEqual(list.Values(), []string{"http://a", "http://b"}) {
		t.Fatalf("unexpected list %+v", list)
	}
	var bad StringOrList
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Fatalf("expected error for numeric value")
	}
}

func TestParseTailscaleMetrics(t *testing.T) {
	sample := `# TYPE tailscaled_inbound_bytes_total counter
# HELP tailscaled_inbound_bytes_total Counts the number of bytes received from other peers
tailscaled_inbound_bytes_total{path="derp"} 1048576
tailscaled_inbound_bytes_total{path="direct_ipv4"} 2097152
tailscaled_outbound_bytes_total{path="direct_ipv4"} 5242880
tailscaled_outbound_bytes_total{path="derp"} 10000
tailscaled_outbound_packets_total{path="derp"} 77
`
	got, err := ParseTailscaleMetrics([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.TotalRx != 3 {
		t.Fatalf("expected rx 3 MB; got %v", got.TotalRx)
	}
	if got.TotalTx != 5.01 {
		t.Fatalf("expected tx 5.01 MB; got %v", got.TotalTx)
	}
}

const sensorsSample = `{
  "macsmc_hwmon-isa-0000": {
    "Adapter": "ISA adapter",
    "AC Input Voltage": {"in0_input": 12.01},
    "Fan": {"fan1_input": 2000.0, "fan1_min": 1200.0, "fan1_max": 6000.0},
    "NAND Flash Temperature": {"temp1_input": 38.0},
    "WiFi/BT Module Temp": {"temp1_input": 40.0},
    "Total System Power": {"power1_input": 25.0},
    "AC Input Power": {"power1_input": 30.0},
    "3.8 V Rail Power": {"power1_input": 5.0},
    "AC Input Current": {"curr1_input": 2.5},
    "Unknown Feature": {"x": 1}
  }
}`

func TestParseSensors(t *testing.T) {
	got, err := ParseSensors([]byte(sensorsSample), "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []struct{ name, value, unit string }{
		{"3.8 V Rail Power (power1_input)", "5.00", "W"},
		{"AC Input Current (curr1_input)", "2500", "mA"},
		{"AC Input Power (power1_input)", "30.00", "W"},
		{"AC Input Voltage", "12.01", "V"},
		{"Fan Speed", "2000", "RPM"},
		{"NAND Flash Temperature (temp1_input)", "38.0", "°C"},
		{"Total System Power (power1_input)", "25.00", "W"},
		{"WiFi/BT Module Temp (temp1_input)", "40.0", "°C"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d readings; got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Value != w.value || got[i].Unit != w.unit {
			t.Errorf("reading %d: expected %+v; got %+v", i, w, got[i])
		}
	}
	fan := got[4]
	if fan.Min == nil || *fan.Min != 1200 || fan.Max == nil || *fan.Max != 6000 || *fan.Current != 2000 {
		t.Fatalf("unexpected fan bounds %+v", fan)
	}
	if got[1].Current == nil || *got[1].Current != 2.5 {
		t.Fatalf("current should keep the raw amps value")
	}
}

func TestParseSensors_MissingChip(t *testing.T) {
	_, err := ParseSensors([]byte(`{"coretemp-isa-0000": {"Adapter": "ISA adapter"}}`), DefaultSensorsChip)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestParseSensors_IncompleteFan(t *testing.T) {
	raw := `{"macsmc_hwmon-isa-0000": {"Adapter": "ISA adapter", "Fan": {"fan1_input": 2000.0}}}`
	if _, err := ParseSensors([]byte(raw), ""); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestParseIPAddr(t *testing.T) {
	sample := `[
  {"ifindex":1,"ifname":"lo","flags":["LOOPBACK","UP","LOWER_UP"],"mtu":65536,"operstate":"UNKNOWN","link_type":"loopback","address":"00:00:00:00:00:00","addr_info":[{"family":"inet","local":"127.0.0.1","prefixlen":8,"scope":"host","label":"lo"}]},
  {"ifindex":2,"ifname":"end0","flags":["NO-CARRIER","BROADCAST","MULTICAST","UP"],"mtu":1500,"operstate":"DOWN","link_type":"ether","address":"4c:20:b8:a8:35:98","addr_info":[]},
  {"ifindex":3,"ifname":"wlan0","flags":["BROADCAST","MULTICAST","UP","LOWER_UP"],"mtu":1500,"operstate":"UP","link_type":"ether","address":"4c:20:b8:a8:10:5f","addr_info":[{"family":"inet6","local":"fe80::4e20:b8ff:fea8:105f","prefixlen":64,"scope":"link"},{"family":"inet","local":"192.168.2.230","prefixlen":24,"scope":"global","dynamic":true},{"family":"inet","local":"169.254.11.146","prefixlen":16,"scope":"global"}]},
  {"ifindex":5,"ifname":"tailscale0","flags":["POINTOPOINT","MULTICAST","NOARP","UP","LOWER_UP"],"mtu":1280,"operstate":"UNKNOWN","link_type":"none","addr_info":[{"family":"inet","local":"100.73.252.58","prefixlen":32,"scope":"global"}]},
  {"ifindex":6,"ifname":"wg0","flags":["UP"],"mtu":1420,"operstate":"UNKNOWN","link_type":"none","addr_info":[{"family":"inet6","local":"fd00::1","prefixlen":64,"scope":"global"}]}
]`
	got, err := ParseIPAddr([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []struct{ name, ip, state string }{
		{"wlan0", "192.168.2.230", "UP"},
		{"tailscale0", "100.73.252.58", "UNKNOWN"},
		{"wg0", "No IPv4", "UNKNOWN"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d interfaces; got %+v", len(want), got)
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].IP != w.ip || got[i].State != w.state {
			t.Errorf("interface %d: expected %+v; got %+v", i, w, got[i])
		}
	}
}

func TestParseIPAddr_MissingRequired(t *testing.T) {
	raw := `[{"ifindex":1,"ifname":"eth0","addr_info":[]}]`
	if _, err := ParseIPAddr([]byte(raw)); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if _, err := ParseIPAddr([]byte(`{"not":"a list"}`)); err == nil || !strings.Contains(err.Error(), "decode ip addr") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDiskUsageFromStat(t *testing.T) {
	const gib = 1024 * 1024 * 1024
	got := DiskUsageFromStat(&disk.UsageStat{
		Path:   "/",
		Fstype: "ext4",
		Total:  75 * gib,
		Used:   16 * gib,
		Free:   56 * gib,
	})
	if got.Filesystem != "rootfs" || got.Mount != "/" {
		t.Fatalf("unexpected identity %+v", got)
	}
	if got.Size != "75.0G" || got.Total != "75.0G" || got.Used != "16.0G" || got.Avail != "56.0G" {
		t.Fatalf("unexpected sizes %+v", got)
	}
	if got.Percentage != 21 || got.UsePerc != "21%" {
		t.Fatalf("expected 21%%; got %d / %s", got.Percentage, got.UsePerc)
	}
}

func TestDiskUsageFromStat_Empty(t *testing.T) {
	got := DiskUsageFromStat(&disk.UsageStat{Path: "/data", Fstype: "xfs"})
	if got.Filesystem != "xfs" || got.Percentage != 0 || got.UsePerc != "0%" {
		t.Fatalf("unexpected usage %+v", got)
	}
}
