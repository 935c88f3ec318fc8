// Package netif picks the LAN address the sync server advertises to phones
// and browsers on the local network.
package netif

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// Fallback is advertised when no physical adapter has a usable address. The
// server is still bound, but no single address can be shown to users.
const Fallback = "0.0.0.0"

// Interface is the subset of host interface metadata the selector needs.
type Interface struct {
	Name  string
	Addrs []netip.Addr
}

// virtualMarkers reject virtualization, VPN and tunnel adapters.
var virtualMarkers = []string{
	"virtual", "vm", "docker", "hyper", "vpn", "wg", "tap", "vbox", "wsl",
}

// physicalMarkers accept adapters that look user-facing, including the
// Chinese and Russian Windows labels for wireless networks.
var physicalMarkers = []string{
	"wi-fi", "wifi", "wlan", "ethernet", "eth", "无线网络", "беспроводная сеть",
}

// Select returns the first non-loopback address of the first interface that
// is physically named and not virtual. Interfaces are considered in the order
// given. ok is false when no interface qualifies.
func Select(ifaces []Interface) (addr netip.Addr, ok bool) {
	for _, iface := range ifaces {
		name := strings.ToLower(iface.Name)
		if containsAny(name, virtualMarkers) || !containsAny(name, physicalMarkers) {
			continue
		}
		for _, a := range iface.Addrs {
			if a.IsValid() && !a.IsLoopback() {
				return a, true
			}
		}
	}
	return netip.Addr{}, false
}

// Advertised returns Select's choice as a string, or Fallback.
func Advertised(ifaces []Interface) string {
	if a, ok := Select(ifaces); ok {
		return a.String()
	}
	return Fallback
}

// Discover lists the host's interfaces that are up, with their IPv4
// addresses, in platform order.
func Discover() ([]Interface, error) {
	sys, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	out := make([]Interface, 0, len(sys))
	for _, si := range sys {
		if si.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := si.Addrs()
		if err != nil {
			continue
		}
		iface := Interface{Name: si.Name}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			v4 := ipnet.IP.To4()
			if v4 == nil {
				continue
			}
			if ip, ok := netip.AddrFromSlice(v4); ok {
				iface.Addrs = append(iface.Addrs, ip)
			}
		}
		out = append(out, iface)
	}
	return out, nil
}

// Resolve discovers the host's interfaces and returns the address to
// advertise. Discovery errors degrade to Fallback.
func Resolve() string {
	ifaces, err := Discover()
	if err != nil {
		return Fallback
	}
	return Advertised(ifaces)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
