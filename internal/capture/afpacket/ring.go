//go:build linux

package afpacket

import "fmt"

// PACKET_MMAP layout rules: frame sizes align to TPACKET_ALIGNMENT,
// block sizes must be multiples of both the page size and the frame
// size, and the ring must hold at least one block.
const (
	tpacketAlignment = 16
	tpacketHdrLen    = 52 // TPACKET3 header, aligned

	defaultBufferSizeMB = 16
)

// ringLayout sizes the mmap ring for a target memory budget. The block
// size is the smallest size divisible by both the page and the frame,
// so the kernel's layout checks hold by construction; the block count
// then fills the budget, never below one block.
func ringLayout(bufferSizeMB, snapLen, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	if bufferSizeMB <= 0 {
		return 0, 0, 0, fmt.Errorf("ring buffer size must be positive, got %d MB", bufferSizeMB)
	}
	if snapLen <= 0 {
		return 0, 0, 0, fmt.Errorf("snap length must be positive, got %d", snapLen)
	}
	if pageSize <= 0 || pageSize%tpacketAlignment != 0 {
		return 0, 0, 0, fmt.Errorf("page size must be a positive multiple of %d, got %d", tpacketAlignment, pageSize)
	}

	rawFrameSize := tpacketHdrLen + snapLen
	frameSize = ((rawFrameSize + tpacketAlignment - 1) / tpacketAlignment) * tpacketAlignment

	blockSize = lcm(pageSize, frameSize)

	targetBytes := bufferSizeMB * 1024 * 1024
	numBlocks = targetBytes / blockSize
	if numBlocks < 1 {
		numBlocks = 1
	}
	return frameSize, blockSize, numBlocks, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return (a * b) / gcd(a, b)
}
