//go:build unix

package ipc

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/hammamikhairi/soulframe/internal/domain"
)

// payloadSize is the wire size of FaceSample: II ffffff Q, little-endian:
// frame counter, face count, distance, gaze x/y, gaze confidence, head
// yaw/pitch, timestamp — 4+4+4*6+8 bytes.
const payloadSize = 40

// counterSize is the 4-byte seqlock counter prefix.
const counterSize = 4

// RegionSize is the total size of the shared-memory segment.
const RegionSize = counterSize + payloadSize

// DefaultSegmentName is the POSIX shared-memory object name used when a
// caller doesn't override it (config VISION_SHM_NAME).
const DefaultSegmentName = "soulframe_vision"

var _ domain.VisionWriter = (*Writer)(nil)
var _ domain.VisionReader = (*Reader)(nil)

// Writer is the vision-side seqlock writer. There must be exactly one
// writer per segment; Writer owns the segment's lifetime and unlinks it
// on Close.
type Writer struct {
	r *region
}

// NewWriter creates (or replaces) the named shared-memory segment and
// returns a writer attached to it. The counter starts at 0 (even: no
// data written yet).
func NewWriter(name string) (*Writer, error) {
	r, err := createRegion(name, RegionSize)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint32(r.buf[0:counterSize], 0)
	return &Writer{r: r}, nil
}

// Write publishes a new sample using the seqlock write protocol:
// increment the counter to odd (a Read meanwhile reports no data), write the payload,
// then increment the counter to even again. A writer never blocks on a
// reader.
func (w *Writer) Write(sample domain.FaceSample) error {
	buf := w.r.buf
	seq := binary.LittleEndian.Uint32(buf[0:counterSize])
	binary.LittleEndian.PutUint32(buf[0:counterSize], seq+1) // now odd

	encodePayload(buf[counterSize:], sample)

	binary.LittleEndian.PutUint32(buf[0:counterSize], seq+2) // back to even
	return nil
}

// Close unmaps and unlinks the segment.
func (w *Writer) Close() error { return w.r.destroy() }

// Reader is the brain-side seqlock reader. It never blocks: a torn or
// stale read simply returns ok=false and the caller keeps its last
// known-good sample.
type Reader struct {
	r          *region
	lastFrame  uint32
	haveFrame  bool
}

// OpenReader attaches to an already-created segment. Callers that need
// to wait for the vision process to start should retry OpenReader with
// backoff until the configured timeout elapses, then surface
// domain.ErrIpcUnavailable.
func OpenReader(name string) (*Reader, error) {
	r, err := openRegion(name, RegionSize)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r}, nil
}

// WaitForWriter polls for the segment to appear, returning
// domain.ErrIpcUnavailable if it does not appear within timeout.
func WaitForWriter(name string, timeout, pollInterval time.Duration) (*Reader, error) {
	deadline := time.Now().Add(timeout)
	for {
		reader, err := OpenReader(name)
		if err == nil {
			return reader, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: segment %q", domain.ErrIpcUnavailable, name)
		}
		time.Sleep(pollInterval)
	}
}

// Read implements the seqlock read protocol: read seq1, reject odd
// (writer mid-write), copy the payload, read seq2, reject if seq1 !=
// seq2 (torn read), and reject if the frame counter hasn't advanced
// since the last call (no new data). Returns (sample, true) only on a
// consistent, new frame.
func (r *Reader) Read() (domain.FaceSample, bool) {
	buf := r.r.buf

	seq1 := binary.LittleEndian.Uint32(buf[0:counterSize])
	if seq1%2 != 0 {
		return domain.FaceSample{}, false
	}

	var tmp [payloadSize]byte
	copy(tmp[:], buf[counterSize:])

	seq2 := binary.LittleEndian.Uint32(buf[0:counterSize])
	if seq1 != seq2 {
		return domain.FaceSample{}, false
	}

	sample := decodePayload(tmp[:])
	if r.haveFrame && sample.FrameCounter == r.lastFrame {
		return domain.FaceSample{}, false
	}
	r.lastFrame = sample.FrameCounter
	r.haveFrame = true
	return sample, true
}

// Close unmaps the segment without unlinking it; the writer owns
// removal.
func (r *Reader) Close() error { return r.r.detach() }

func encodePayload(dst []byte, s domain.FaceSample) {
	binary.LittleEndian.PutUint32(dst[0:4], s.FrameCounter)
	binary.LittleEndian.PutUint32(dst[4:8], s.NumFaces)
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(s.FaceDistance))
	binary.LittleEndian.PutUint32(dst[12:16], math.Float32bits(s.GazeX))
	binary.LittleEndian.PutUint32(dst[16:20], math.Float32bits(s.GazeY))
	binary.LittleEndian.PutUint32(dst[20:24], math.Float32bits(s.GazeConfidence))
	binary.LittleEndian.PutUint32(dst[24:28], math.Float32bits(s.HeadYaw))
	binary.LittleEndian.PutUint32(dst[28:32], math.Float32bits(s.HeadPitch))
	binary.LittleEndian.PutUint64(dst[32:40], s.TimestampNs)
}

func decodePayload(src []byte) domain.FaceSample {
	return domain.FaceSample{
		FrameCounter:   binary.LittleEndian.Uint32(src[0:4]),
		NumFaces:       binary.LittleEndian.Uint32(src[4:8]),
		FaceDistance:   math.Float32frombits(binary.LittleEndian.Uint32(src[8:12])),
		GazeX:          math.Float32frombits(binary.LittleEndian.Uint32(src[12:16])),
		GazeY:          math.Float32frombits(binary.LittleEndian.Uint32(src[16:20])),
		GazeConfidence: math.Float32frombits(binary.LittleEndian.Uint32(src[20:24])),
		HeadYaw:        math.Float32frombits(binary.LittleEndian.Uint32(src[24:28])),
		HeadPitch:      math.Float32frombits(binary.LittleEndian.Uint32(src[28:32])),
		TimestampNs:    binary.LittleEndian.Uint64(src[32:40]),
	}
}
