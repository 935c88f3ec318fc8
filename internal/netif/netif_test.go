package netif_test

import (
	"net/netip"
	"testing"

	"go.klb.dev/lanpaste/internal/netif"
)

func addrs(ss ...string) []netip.Addr {
	out := make([]netip.Addr, len(ss))
	for i, s := range ss {
		out[i] = netip.MustParseAddr(s)
	}
	return out
}

func TestSelect_SinglePhysicalAdapter(t *testing.T) {
	ifaces := []netif.Interface{
		{Name: "lo", Addrs: addrs("127.0.0.1")},
		{Name: "docker0", Addrs: addrs("172.17.0.1")},
		{Name: "Wi-Fi", Addrs: addrs("192.168.1.20")},
	}
	got, ok := netif.Select(ifaces)
	if !ok {
		t.Fatal("Select: no address")
	}
	if got.String() != "192.168.1.20" {
		t.Errorf("Select: got %s, want 192.168.1.20", got)
	}
}

func TestSelect_AllVirtual(t *testing.T) {
	ifaces := []netif.Interface{
		{Name: "vEthernet (WSL)", Addrs: addrs("172.20.0.1")},
		{Name: "VirtualBox Host-Only Ethernet", Addrs: addrs("192.168.56.1")},
		{Name: "wg0", Addrs: addrs("10.8.0.2")},
		{Name: "Ethernet VPN", Addrs: addrs("10.9.0.2")},
		{Name: "tap-eth", Addrs: addrs("10.10.0.2")},
	}
	if got, ok := netif.Select(ifaces); ok {
		t.Errorf("Select: got %s, want none", got)
	}
	if got := netif.Advertised(ifaces); got != netif.Fallback {
		t.Errorf("Advertised: got %s, want %s", got, netif.Fallback)
	}
}

func TestSelect_UnknownNamesRejected(t *testing.T) {
	ifaces := []netif.Interface{
		{Name: "en0", Addrs: addrs("192.168.1.5")},
		{Name: "bridge100", Addrs: addrs("192.168.2.1")},
	}
	if got, ok := netif.Select(ifaces); ok {
		t.Errorf("Select: got %s, want none", got)
	}
}

func TestSelect_SkipsLoopbackAddresses(t *testing.T) {
	ifaces := []netif.Interface{
		{Name: "eth0", Addrs: addrs("127.0.1.1", "10.0.0.7", "10.0.0.8")},
	}
	got, ok := netif.Select(ifaces)
	if !ok || got.String() != "10.0.0.7" {
		t.Errorf("Select: got %s (%v), want 10.0.0.7", got, ok)
	}
}

func TestSelect_LoopbackOnlyFallsThrough(t *testing.T) {
	ifaces := []netif.Interface{
		{Name: "eth0", Addrs: addrs("127.0.0.1")},
		{Name: "wlan0", Addrs: addrs("192.168.0.42")},
	}
	got, ok := netif.Select(ifaces)
	if !ok || got.String() != "192.168.0.42" {
		t.Errorf("Select: got %s (%v), want 192.168.0.42", got, ok)
	}
}

func TestSelect_FirstAcceptedWins(t *testing.T) {
	ifaces := []netif.Interface{
		{Name: "WLAN", Addrs: addrs("192.168.1.9")},
		{Name: "Ethernet", Addrs: addrs("192.168.1.10")},
	}
	got, _ := netif.Select(ifaces)
	if got.String() != "192.168.1.9" {
		t.Errorf("Select: got %s, want 192.168.1.9", got)
	}
}

func TestSelect_LocalizedWirelessLabel(t *testing.T) {
	for _, name := range []string{"无线网络连接", "Беспроводная сеть", "Беспроводная сеть 2"} {
		ifaces := []netif.Interface{
			{Name: "vEthernet (WSL)", Addrs: addrs("172.20.0.1")},
			{Name: name, Addrs: addrs("192.168.3.3")},
		}
		got, ok := netif.Select(ifaces)
		if !ok || got.String() != "192.168.3.3" {
			t.Errorf("%s: got %s (%v), want 192.168.3.3", name, got, ok)
		}
	}
}

func TestSelect_Empty(t *testing.T) {
	if _, ok := netif.Select(nil); ok {
		t.Error("Select(nil): want none")
	}
}
