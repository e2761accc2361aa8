package util

import (
	"net"
	"os"
	"strconv"
)

// LocalIP 返回第一个非回环的IPv4地址，获取失败返回nil
func LocalIP() net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip
		}
	}
	return nil
}

// HostInfo 格式为ip:pid，ip未知时为N/A
func HostInfo() string {
	ip := "N/A"
	if addr := LocalIP(); addr != nil {
		ip = addr.String()
	}
	return ip + ":" + strconv.Itoa(os.Getpid())
}
