package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/kotoba-dev/kotoba/internal/domain"
)

// threadLocalHashLength is how much of the digest is shown. Enough to tell
// posters apart within a thread, short enough to render inline.
const threadLocalHashLength = 10

// ThreadLocalUserHash derives the per-thread pseudonymous poster id from
// the poster's address. The thread id is mixed in so the same address gets
// unrelated hashes in different threads; the pepper keeps the hash
// non-invertible across deployments.
func ThreadLocalUserHash(pepper string, threadId domain.ThreadId, ipAddress string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write(threadId[:])
	mac.Write([]byte(ipAddress))
	return hex.EncodeToString(mac.Sum(nil))[:threadLocalHashLength]
}
