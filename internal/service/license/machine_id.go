package license

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
)

// machineIDLength 기기 식별자로 사용하는 해시 접두사 길이(16진수 문자 수)입니다.
const machineIDLength = 16

// detectMachineID 호스트 이름과 첫 번째 물리 네트워크 인터페이스의 MAC 주소로 기기 식별자를 만듭니다.
func detectMachineID() string {
	hostname, _ := os.Hostname()
	return hashMachineID(hostname, firstHardwareAddr())
}

func hashMachineID(hostname, mac string) string {
	sum := sha256.Sum256([]byte(hostname + mac))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:machineIDLength]
}

func firstHardwareAddr() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String()
	}

	return ""
}
