package playlist

import (
	"math"
	"testing"
)

func TestProbe_Media(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:9.9,
segment001.ts
#EXTINF:10.0,
segment002.ts
#EXTINF:10.1,
segment003.ts
#EXT-X-ENDLIST
`
	s, err := Probe(content)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}

	if s.Kind != Media {
		t.Errorf("Kind = %s, want media", s.Kind)
	}
	if s.Segments != 3 {
		t.Errorf("Segments = %d, want 3", s.Segments)
	}
	if s.TargetDuration != 10 {
		t.Errorf("TargetDuration = %v, want 10", s.TargetDuration)
	}
	if math.Abs(s.LongestSegment-10.1) > 0.001 {
		t.Errorf("LongestSegment = %v, want 10.1", s.LongestSegment)
	}
	if math.Abs(s.TotalDuration-30.0) > 0.001 {
		t.Errorf("TotalDuration = %v, want 30", s.TotalDuration)
	}
	if !s.Closed {
		t.Error("expected closed VOD playlist")
	}
	if s.Encrypted {
		t.Error("expected unencrypted playlist")
	}
}

func TestProbe_DeclaredTargetDuration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{
			name:    "segments longer than declared",
			content: "#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXTINF:9.5,\na.ts\n#EXT-X-ENDLIST\n",
			want:    6,
		},
		{
			name:    "missing tag",
			content: "#EXTM3U\n#EXTINF:4.0,\na.ts\n#EXT-X-ENDLIST\n",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Probe(tt.content)
			if err != nil {
				t.Fatalf("Probe() error: %v", err)
			}
			if s.TargetDuration != tt.want {
				t.Errorf("TargetDuration = %v, want %v", s.TargetDuration, tt.want)
			}
		})
	}
}

func TestProbe_EncryptedLive(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXT-X-MEDIA-SEQUENCE:100
#EXT-X-KEY:METHOD=AES-128,URI="https://keys.example.com/k1"
#EXTINF:4.0,
s100.ts
#EXTINF:4.0,
s101.ts
`
	s, err := Probe(content)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}

	if !s.Encrypted {
		t.Error("expected encrypted playlist")
	}
	if s.Closed {
		t.Error("expected live playlist without ENDLIST")
	}
}

func TestProbe_Master(t *testing.T) {
	s, err := Probe("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=640x360\nlow.m3u8\n#EXT-X-STREAM-INF:BANDWIDTH=2560000,RESOLUTION=1280x720\nhigh.m3u8\n")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}

	if s.Kind != Master {
		t.Errorf("Kind = %s, want master", s.Kind)
	}
	if s.Variants != 2 {
		t.Errorf("Variants = %d, want 2", s.Variants)
	}
}

func TestProbe_Invalid(t *testing.T) {
	if _, err := Probe("not a valid m3u8 file"); err == nil {
		t.Fatal("expected error for invalid m3u8, got nil")
	}
}
