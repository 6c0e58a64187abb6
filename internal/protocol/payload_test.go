// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package protocol

import "testing"

func TestHeartbeatResponseRoundTrip(t *testing.T) {
	r := HeartbeatResponse{Status: StatusOK, Counter: 1234}
	got, err := DecodeHeartbeatResponse(r.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != r {
		t.Fatalf("got %+v, want %+v", got, r)
	}
}

func TestStatusResponseRoundTrip(t *testing.T) {
	r := StatusResponse{
		Status:            StatusOK,
		Mode:              2,
		CommandRejected:   3,
		ChecksumFailed:    0,
		UnknownCommand:    9,
		HardwareFault:     1,
		UptimeTicks:       1 << 40,
		ProtectionStatus:  1,
		CommHwStatus:      0,
		CommSwStatus:      2,
		ConfigStatus:      3,
		BootTypeResetCode: 4,
	}
	got, err := DecodeStatusResponse(r.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != r {
		t.Fatalf("got %+v, want %+v", got, r)
	}
}

func TestLineMaskRoundTrip(t *testing.T) {
	req := LineMaskRequest{Mask: 0xFFFF0001}
	got, err := DecodeLineMaskRequest(req.Encode())
	if err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if got != req {
		t.Fatalf("got %+v, want %+v", got, req)
	}

	resp := LineMaskResponse{Status: StatusOK, Mask: 0x00000007}
	gotResp, err := DecodeLineMaskResponse(resp.Encode())
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if gotResp != resp {
		t.Fatalf("got %+v, want %+v", gotResp, resp)
	}
}

func TestRawMeasurementsRoundTrip(t *testing.T) {
	r := RawMeasurementsResponse{Status: StatusOK, Samples: []uint16{0, 2047, 4095}}
	buf, err := r.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRawMeasurementsResponse(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Samples) != len(r.Samples) {
		t.Fatalf("sample count mismatch: got %d, want %d", len(got.Samples), len(r.Samples))
	}
	for i := range r.Samples {
		if got.Samples[i] != r.Samples[i] {
			t.Fatalf("sample %d mismatch: got %d, want %d", i, got.Samples[i], r.Samples[i])
		}
	}
}

func TestConvertedMeasurementsRoundTrip(t *testing.T) {
	r := ConvertedMeasurementsResponse{Status: StatusOK, Samples: []float32{0, 3.3, -12.5, 28.112}}
	buf, err := r.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeConvertedMeasurementsResponse(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range r.Samples {
		if got.Samples[i] != r.Samples[i] {
			t.Fatalf("sample %d mismatch: got %v, want %v", i, got.Samples[i], r.Samples[i])
		}
	}
}

func TestRawMeasurementsTruncatedRejected(t *testing.T) {
	buf := []byte{byte(StatusOK), 3, 0x00, 0x01} // claims 3 samples, carries 1
	_, err := DecodeRawMeasurementsResponse(buf)
	if err == nil {
		t.Fatal("expected error for truncated raw measurements payload")
	}
}

func TestDecodeSimpleStatusResponse(t *testing.T) {
	got, err := DecodeSimpleStatusResponse([]byte{byte(StatusLineTransitionForbidden)})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != StatusLineTransitionForbidden {
		t.Fatalf("got %v", got.Status)
	}
}
