// Package pcap reads capture files produced by the simulation. It uses the
// pure-Go pcapgo decoder, so consumers need no libpcap at build time.
package pcap

import (
	"os"
	"time"

	"github.com/google/gopacket/pcapgo"
)

// Record is one captured frame: its capture timestamp and raw bytes.
type Record struct {
	Timestamp time.Time
	Data      []byte
}

// Reader reads packets from a pcap file.
type Reader struct {
	file *os.File
	r    *pcapgo.Reader
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	r, err := pcapgo.NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &Reader{file: file, r: r}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadRecords reads all packets from the pcap file and sends them to the
// provided channel. The channel is closed when the file is exhausted.
func (r *Reader) ReadRecords(out chan<- Record) {
	defer close(out)
	for {
		data, ci, err := r.r.ReadPacketData()
		if err != nil {
			return
		}
		out <- Record{Timestamp: ci.Timestamp, Data: data}
	}
}
