package memo

import (
	"testing"

	"github.com/smarttro/smarttro/internal/payment/domain"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		memo string
		want domain.ParsedMemo
	}{
		{
			name: "invoice keyword",
			memo: "HD INV2024001",
			want: domain.ParsedMemo{RecordCode: "INV2024001"},
		},
		{
			name: "room keyword with diacritics",
			memo: "Thanh toán phòng P04 tháng 9",
			want: domain.ParsedMemo{RoomToken: "P04"},
		},
		{
			name: "bare room token",
			memo: "P12 TIEN TRO",
			want: domain.ParsedMemo{RoomToken: "P12"},
		},
		{
			name: "room plus bare amount keeps amount out of the code",
			memo: "CHUYEN KHOAN PHONG P04 500000",
			want: domain.ParsedMemo{RoomToken: "P04"},
		},
		{
			name: "trailing code without keyword",
			memo: "NGUYEN VAN A ORD55X21",
			want: domain.ParsedMemo{RecordCode: "ORD55X21"},
		},
		{
			name: "order keyword",
			memo: "don hang ORD55X21",
			want: domain.ParsedMemo{RecordCode: "ORD55X21"},
		},
		{
			name: "room hash form",
			memo: "ROOM #B203 thang 10",
			want: domain.ParsedMemo{RoomToken: "B203"},
		},
		{
			name: "both identifiers",
			memo: "phong P04 HD INV2024007",
			want: domain.ParsedMemo{RoomToken: "P04", RecordCode: "INV2024007"},
		},
		{
			name: "nothing usable",
			memo: "chuc mung nam moi",
			want: domain.ParsedMemo{},
		},
		{
			name: "empty",
			memo: "",
			want: domain.ParsedMemo{},
		},
		{
			name: "bare digits only",
			memo: "500000",
			want: domain.ParsedMemo{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.memo)
			if got.RoomToken != tc.want.RoomToken {
				t.Fatalf("Parse(%q).RoomToken = %q, want %q", tc.memo, got.RoomToken, tc.want.RoomToken)
			}
			if got.RecordCode != tc.want.RecordCode {
				t.Fatalf("Parse(%q).RecordCode = %q, want %q", tc.memo, got.RecordCode, tc.want.RecordCode)
			}
		})
	}
}
