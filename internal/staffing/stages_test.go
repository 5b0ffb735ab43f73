package staffing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"clinic-booking/internal/timeofday"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(value string) time.Time {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return date
}

func dayPtr(value string) *time.Time {
	date := day(value)
	return &date
}

func partOfDay(value PartOfDay) *PartOfDay {
	return &value
}

// fakeRepository answers the repository queries from memory with the same filters the SQL applies.
type fakeRepository struct {
	rooms         map[int64][]int64
	candidates    []Candidate
	staffServices []StaffService
	patterns      []WorkPattern
	leaves        []Leave
	bookings      []Booking
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (f fakeRepository) RoomExists(ctx context.Context, roomID int64) (bool, error) {
	_, found := f.rooms[roomID]
	return found, nil
}

func (f fakeRepository) ListCandidates(ctx context.Context, role string) ([]Candidate, error) {
	candidates := make([]Candidate, 0)
	for _, c := range f.candidates {
		if c.Role == role {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

func (f fakeRepository) ListRoomServices(ctx context.Context, roomID int64) ([]int64, error) {
	return f.rooms[roomID], nil
}

func (f fakeRepository) ListStaffServices(ctx context.Context, staffIDs []int64) ([]StaffService, error) {
	services := make([]StaffService, 0)
	for _, s := range f.staffServices {
		if contains(staffIDs, s.StaffID) {
			services = append(services, s)
		}
	}
	return services, nil
}

func (f fakeRepository) ListWorkPatterns(ctx context.Context, staffIDs []int64, date time.Time) ([]WorkPattern, error) {
	patterns := make([]WorkPattern, 0)
	for _, p := range f.patterns {
		if contains(staffIDs, p.StaffID) && p.Weekday == WeekdayOf(date) {
			patterns = append(patterns, p)
		}
	}
	return patterns, nil
}

func (f fakeRepository) ListLeaves(ctx context.Context, staffIDs []int64, date time.Time) ([]Leave, error) {
	leaves := make([]Leave, 0)
	for _, l := range f.leaves {
		if contains(staffIDs, l.StaffID) && !l.DateFrom.After(date) && !l.DateTo.Before(date) {
			leaves = append(leaves, l)
		}
	}
	return leaves, nil
}

func (f fakeRepository) ListBookings(ctx context.Context, staffIDs []int64, date time.Time) ([]Booking, error) {
	bookings := make([]Booking, 0)
	for _, b := range f.bookings {
		if contains(staffIDs, b.StaffID) {
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

// clinic is a Monday at a two location clinic:
//   - Adams works at both locations, qualified for both room services, booked 09:00 to 09:30.
//   - Baker works at location 3 but the work pattern expired.
//   - Clark works at location 4 and is on an approved full day leave.
//   - Young works at location 3 but shares no service with the room.
//   - Evans is a nurse.
func clinic() fakeRepository {
	return fakeRepository{
		rooms: map[int64][]int64{50: {100, 101}, 51: {}},
		candidates: []Candidate{
			{StaffID: 4, StaffName: "Young", Role: "doctor", LocationID: 3},
			{StaffID: 1, StaffName: "Adams", Role: "doctor", LocationID: 4},
			{StaffID: 3, StaffName: "Clark", Role: "doctor", LocationID: 4},
			{StaffID: 2, StaffName: "Baker", Role: "doctor", LocationID: 3},
			{StaffID: 1, StaffName: "Adams", Role: "doctor", LocationID: 3},
			{StaffID: 5, StaffName: "Evans", Role: "nurse", LocationID: 3},
		},
		staffServices: []StaffService{
			{StaffID: 1, ServiceID: 101}, {StaffID: 1, ServiceID: 100}, {StaffID: 1, ServiceID: 200},
			{StaffID: 2, ServiceID: 101},
			{StaffID: 3, ServiceID: 100},
			{StaffID: 4, ServiceID: 200},
			{StaffID: 5, ServiceID: 100},
		},
		patterns: []WorkPattern{
			{StaffID: 1, LocationID: 3, Weekday: Monday},
			{StaffID: 1, LocationID: 4, Weekday: Tuesday},
			{StaffID: 2, LocationID: 3, Weekday: Monday, ValidTo: dayPtr("2025-06-01")},
			{StaffID: 3, LocationID: 4, Weekday: Monday, ValidFrom: dayPtr("2025-01-01"), ValidTo: dayPtr("2025-12-31")},
		},
		leaves: []Leave{
			{StaffID: 3, DateFrom: day("2025-06-10"), DateTo: day("2025-06-20")},
		},
		bookings: []Booking{
			{StaffID: 1, StartTime: timeofday.New(9, 0), EndTime: timeofday.New(9, 30)},
		},
	}
}

func keys(candidates []Candidate) []string {
	list := make([]string, 0, len(candidates))
	for _, c := range candidates {
		list = append(list, fmt.Sprintf("%s@%d", c.StaffName, c.LocationID))
	}
	return list
}

func TestFindEligible(t *testing.T) {
	monday := day("2025-06-16")
	tests := []struct {
		name    string
		request Request
		want    []string
	}{
		{
			name:    "should return every doctor sharing a service with the room ordered by name",
			request: ByRoom(50, "doctor"),
			want:    []string{"Adams@3", "Adams@4", "Baker@3", "Clark@4"},
		},
		{
			name:    "should keep the assignments at the location",
			request: ByRoomAtLocation(50, "doctor", 3),
			want:    []string{"Adams@3", "Baker@3"},
		},
		{
			name:    "should keep the doctors working on the weekday and not on leave",
			request: AvailableAt(50, "doctor", 3, monday, timeofday.New(9, 15)),
			want:    []string{"Adams@3"},
		},
		{
			name:    "should drop the doctors busy at that time",
			request: FreeAt(50, "doctor", 3, monday, timeofday.New(9, 15)),
			want:    []string{},
		},
		{
			name:    "should keep a doctor whose booking ends at that time",
			request: FreeAt(50, "doctor", 3, monday, timeofday.New(9, 30)),
			want:    []string{"Adams@3"},
		},
		{
			name: "should check availability at every assigned location",
			request: Request{
				RoomID: 50, Role: "doctor", Date: &monday, Time: func() *timeofday.Clock { c := timeofday.New(15, 0); return &c }(),
				CheckTimeslot: true,
			},
			want: []string{"Adams@3"},
		},
		{
			name:    "should return nobody for a room without services",
			request: ByRoom(51, "doctor"),
			want:    []string{},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			service := defaultService{repository: clinic()}
			got, err := service.FindEligible(context.TODO(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(got))
		})
	}
}

func TestFindEligibleMatchedServices(t *testing.T) {
	service := defaultService{repository: clinic()}
	got, err := service.FindEligible(context.TODO(), ByRoomAtLocation(50, "doctor", 3))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].MatchedServiceCount)
	assert.Equal(t, []int64{100, 101}, got[0].MatchedServiceIDs)
	assert.Equal(t, 1, got[1].MatchedServiceCount)
	assert.Equal(t, []int64{101}, got[1].MatchedServiceIDs)
}

func TestFindEligibleNarrowsMonotonically(t *testing.T) {
	service := defaultService{repository: clinic()}
	location := int64(3)
	for _, date := range []string{"2025-06-15", "2025-06-16", "2025-06-17"} {
		for _, at := range []timeofday.Clock{timeofday.New(9, 0), timeofday.New(9, 29), timeofday.New(12, 0)} {
			for mask := 0; mask < 8; mask++ {
				base := Request{
					RoomID: 50, Role: "doctor", LocationID: &location, Date: dayPtr(date), Time: &at,
					CheckLocation: mask&1 != 0, CheckTimeslot: mask&2 != 0, CheckBooking: mask&4 != 0,
				}
				without, err := service.FindEligible(context.TODO(), base)
				require.NoError(t, err)
				for bit := 0; bit < 3; bit++ {
					if mask&(1<<bit) != 0 {
						continue
					}
					narrowed := base
					switch bit {
					case 0:
						narrowed.CheckLocation = true
					case 1:
						narrowed.CheckTimeslot = true
					case 2:
						narrowed.CheckBooking = true
					}
					with, err := service.FindEligible(context.TODO(), narrowed)
					require.NoError(t, err)
					assert.Subset(t, keys(without), keys(with), "date %s time %s mask %d bit %d", date, at, mask, bit)
				}
			}
		}
	}
}

func TestFindEligibleLeaveOnlyAppliesToTimeslotChecks(t *testing.T) {
	service := defaultService{repository: clinic()}
	monday := day("2025-06-16")
	at := timeofday.New(10, 0)

	unchecked, err := service.FindEligible(context.TODO(), Request{RoomID: 50, Role: "doctor", Date: &monday, Time: &at})
	require.NoError(t, err)
	assert.Contains(t, keys(unchecked), "Clark@4")

	checked, err := service.FindEligible(context.TODO(), Request{RoomID: 50, Role: "doctor", Date: &monday, Time: &at, CheckTimeslot: true})
	require.NoError(t, err)
	assert.NotContains(t, keys(checked), "Clark@4")
}

func TestFindEligibleUnknownRoom(t *testing.T) {
	service := defaultService{repository: clinic()}
	_, err := service.FindEligible(context.TODO(), ByRoom(99, "doctor"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrRoomNotFound)
}

func TestRequestValidate(t *testing.T) {
	monday := day("2025-06-16")
	at := timeofday.New(9, 0)
	tests := []struct {
		name    string
		request Request
		wantErr bool
	}{
		{name: "should accept a request without checks", request: ByRoom(50, "doctor")},
		{name: "should require a role", request: Request{RoomID: 50}, wantErr: true},
		{name: "should require a location to check it", request: Request{RoomID: 50, Role: "doctor", CheckLocation: true}, wantErr: true},
		{name: "should require a date to check the timeslot", request: Request{RoomID: 50, Role: "doctor", Time: &at, CheckTimeslot: true}, wantErr: true},
		{name: "should require a time to check bookings", request: Request{RoomID: 50, Role: "doctor", Date: &monday, CheckBooking: true}, wantErr: true},
		{name: "should accept every check with its inputs", request: FreeAt(50, "doctor", 3, monday, at)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.request.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, Sunday, WeekdayOf(day("2025-06-15")))
	assert.Equal(t, Monday, WeekdayOf(day("2025-06-16")))
	assert.Equal(t, Saturday, WeekdayOf(day("2025-06-21")))
}

func TestLeaveBlocks(t *testing.T) {
	date := day("2025-06-16")
	tests := []struct {
		name  string
		leave Leave
		at    timeofday.Clock
		want  bool
	}{
		{name: "should block all day without a part of day", leave: Leave{DateFrom: date, DateTo: date}, at: timeofday.New(16, 0), want: true},
		{name: "should block all day for a full day", leave: Leave{DateFrom: date, DateTo: date, PartOfDay: partOfDay(FullDay)}, at: timeofday.New(8, 0), want: true},
		{name: "should block a morning time", leave: Leave{DateFrom: date, DateTo: date, PartOfDay: partOfDay(Morning)}, at: timeofday.New(11, 59), want: true},
		{name: "should not block noon for a morning leave", leave: Leave{DateFrom: date, DateTo: date, PartOfDay: partOfDay(Morning)}, at: timeofday.Noon, want: false},
		{name: "should block noon for an afternoon leave", leave: Leave{DateFrom: date, DateTo: date, PartOfDay: partOfDay(Afternoon)}, at: timeofday.Noon, want: true},
		{name: "should not block a morning time for an afternoon leave", leave: Leave{DateFrom: date, DateTo: date, PartOfDay: partOfDay(Afternoon)}, at: timeofday.New(9, 0), want: false},
		{name: "should not block outside the leave dates", leave: Leave{DateFrom: day("2025-06-17"), DateTo: day("2025-06-18")}, at: timeofday.New(9, 0), want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.leave.Blocks(date, tt.at))
		})
	}
}

func TestWorkPatternCovers(t *testing.T) {
	monday := day("2025-06-16")
	assert.True(t, WorkPattern{Weekday: Monday}.Covers(monday))
	assert.False(t, WorkPattern{Weekday: Tuesday}.Covers(monday))
	assert.True(t, WorkPattern{Weekday: Monday, ValidFrom: dayPtr("2025-06-16"), ValidTo: dayPtr("2025-06-16")}.Covers(monday))
	assert.False(t, WorkPattern{Weekday: Monday, ValidFrom: dayPtr("2025-06-17")}.Covers(monday))
	assert.False(t, WorkPattern{Weekday: Monday, ValidTo: dayPtr("2025-06-15")}.Covers(monday))
}

func TestStagesCompose(t *testing.T) {
	candidates := []Candidate{
		{StaffID: 1, StaffName: "Adams", LocationID: 3},
		{StaffID: 2, StaffName: "Baker", LocationID: 4},
	}
	got := Apply(candidates,
		AtLocation(3),
		Qualified([]int64{100}, []StaffService{{StaffID: 1, ServiceID: 100}, {StaffID: 2, ServiceID: 100}}),
		NotBooked(timeofday.New(10, 0), []Booking{{StaffID: 2, StartTime: timeofday.New(9, 0), EndTime: timeofday.New(11, 0)}}),
	)
	assert.Equal(t, []string{"Adams@3"}, keys(got))
	assert.Equal(t, candidates, Apply(candidates), "applying no stage keeps every candidate")
}
