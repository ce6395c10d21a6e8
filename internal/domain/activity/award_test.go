package activity

import (
	"testing"

	"github.com/lib/pq"

	"github.com/fambank/fambank-api/internal/domain/settings"
)

func TestDayAward(t *testing.T) {
	rates := settings.Defaults()

	cases := []struct {
		name string
		rec  DayRecord
		want int64
	}{
		{
			name: "empty day pays nothing",
			rec:  DayRecord{},
			want: 0,
		},
		{
			name: "grades sum per rate",
			rec:  DayRecord{Grades: pq.Int64Array{5, 4, 3}},
			want: rates.GradeCoins[5] + rates.GradeCoins[4] + rates.GradeCoins[3],
		},
		{
			name: "bad grade subtracts",
			rec:  DayRecord{Grades: pq.Int64Array{2}},
			want: rates.GradeCoins[2],
		},
		{
			name: "room and qualifying sport",
			rec:  DayRecord{RoomOK: true, SportMinutes: rates.SportMinMinutes},
			want: rates.RoomDailyCoins + rates.SportDailyCoins,
		},
		{
			name: "sport below minimum pays nothing",
			rec:  DayRecord{SportMinutes: rates.SportMinMinutes - 1},
			want: 0,
		},
		{
			name: "full day",
			rec:  DayRecord{RoomOK: true, Grades: pq.Int64Array{5, 5}, SportMinutes: 60},
			want: 2*rates.GradeCoins[5] + rates.RoomDailyCoins + rates.SportDailyCoins,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DayAward(tc.rec, rates); got != tc.want {
				t.Errorf("DayAward = %d, want %d", got, tc.want)
			}
		})
	}
}
