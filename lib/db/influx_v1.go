package db

import (
	"fmt"
	"net"
)

// InfluxDBV1Handler writes samples to InfluxDB v1 over its UDP listener
// using the line protocol.
type InfluxDBV1Handler struct {
	conn *net.UDPConn
	addr string
}

// Initialize sets up the InfluxDB UDP connection
func (h *InfluxDBV1Handler) Initialize(host string, port int) error {
	h.addr = fmt.Sprintf("%s:%d", host, port)

	addr, err := net.ResolveUDPAddr("udp", h.addr)
	if err != nil {
		return fmt.Errorf("error resolving InfluxDB UDP address: %w", err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("error creating InfluxDB UDP client: %w", err)
	}

	h.conn = conn
	return nil
}

// CreateQuery generates the InfluxDB line protocol query for a sample group
func (h *InfluxDBV1Handler) CreateQuery(samples SampleGroup) string {
	return CreateQuery(samples)
}

// Insert sends the sample group data to InfluxDB using UDP
func (h *InfluxDBV1Handler) Insert(samples SampleGroup) error {
	query := h.CreateQuery(samples)

	_, err := h.conn.Write([]byte(query))
	if err != nil {
		return fmt.Errorf("error sending data to InfluxDB over UDP: %w", err)
	}

	return nil
}

// Close closes the InfluxDB UDP client when done
func (h *InfluxDBV1Handler) Close() error {
	if h.conn == nil {
		return nil
	}
	return h.conn.Close()
}

var _ Handler = (*InfluxDBV1Handler)(nil)
