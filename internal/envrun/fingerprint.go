package envrun

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// fingerprintFile is the marker stored inside an environment directory.
const fingerprintFile = ".fingerprint"

// Fingerprint identifies the dependency state of an environment directory.
// An environment is reused only while its stored fingerprint matches the
// one computed from the current configuration.
type Fingerprint string

// ComputeFingerprint hashes the install command template and the ordered
// dependency list. Fields are length-prefixed so adjacent values cannot
// collide ("ab"+"c" vs "a"+"bc").
func ComputeFingerprint(installCommand string, deps []string) Fingerprint {
	hasher := sha256.New()

	writeField := func(data []byte) {
		var prefix [8]byte
		binary.BigEndian.PutUint64(prefix[:], uint64(len(data)))
		hasher.Write(prefix[:])
		hasher.Write(data)
	}

	writeField([]byte(installCommand))
	writeField([]byte{byte(len(deps))})
	for _, d := range deps {
		writeField([]byte(d))
	}

	return Fingerprint(hex.EncodeToString(hasher.Sum(nil)))
}

func (f Fingerprint) String() string { return string(f) }
