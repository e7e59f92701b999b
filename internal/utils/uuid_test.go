package utils

import "testing"

func TestIsUUID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "canonical", in: "7d444840-9dc0-11d1-b245-5ffdce74fad2", want: true},
		{name: "uppercase", in: "7D444840-9DC0-11D1-B245-5FFDCE74FAD2", want: true},
		{name: "empty", in: "", want: false},
		{name: "mongo_object_id", in: "507f1f77bcf86cd799439011", want: false},
		{name: "garbage", in: "not-a-uuid", want: false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			if got := IsUUID(tt.in); got != tt.want {
				t.Fatalf("IsUUID(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
