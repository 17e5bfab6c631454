package net

import (
	"github.com/pkg/errors"
	"net"
	"strconv"
)

var ErrNoValidNetworkInterfaceFound = errors.New("no valid network interface found")

// FindAvailableIPv4Addr returns the first IPv4 address of an up, non-loopback
// interface.
func FindAvailableIPv4Addr() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", errors.Wrap(err, "failed to list network interfaces")
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			return "", errors.Wrapf(err, "failed to list addresses of %s", iface.Name)
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok {
				if ip4 := ipNet.IP.To4(); ip4 != nil {
					return ip4.String(), nil
				}
			}
		}
	}
	return "", ErrNoValidNetworkInterfaceFound
}

// AdvertiseAddr resolves the host and port other services should use to reach
// a server listening on listenAddr. An explicit advertise host wins; an
// unspecified listen host is replaced by a discovered interface address.
func AdvertiseAddr(listenAddr, advertiseHost string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid listen address %q", listenAddr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid port in %q", listenAddr)
	}
	switch {
	case advertiseHost != "":
		host = advertiseHost
	case host == "" || host == "0.0.0.0" || host == "::":
		host, err = FindAvailableIPv4Addr()
		if err != nil {
			return "", 0, err
		}
	}
	return host, port, nil
}
