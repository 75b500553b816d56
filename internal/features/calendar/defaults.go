package calendar

// DefaultDepartments is the compiled-in shift table used when no
// DEPARTMENTS_FILE is configured.
var DefaultDepartments = []Department{
	{
		Name: "VIP CALLS",
		Shifts: []ShiftTemplate{
			{Start: "08:00", End: "17:00"},
			{Start: "10:00", End: "19:00"},
			{Start: "12:00", End: "21:00"},
			{Start: "14:00", End: "23:00"},
		},
	},
	{
		Name: "CALLS",
		Shifts: []ShiftTemplate{
			{Start: "00:00", End: "09:00"},
			{Start: "08:00", End: "17:00"},
			{Start: "09:00", End: "18:00"},
			{Start: "11:00", End: "20:00"},
			{Start: "15:00", End: "00:00"},
		},
	},
	{
		Name: "CHATS",
		Shifts: []ShiftTemplate{
			{Start: "07:00", End: "16:00"},
			{Start: "09:00", End: "18:00"},
			{Start: "13:00", End: "22:00"},
			{Start: "22:00", End: "07:00"},
		},
	},
	{
		Name: "EMAIL",
		Shifts: []ShiftTemplate{
			{Start: "09:00", End: "18:00"},
			{Start: "10:00", End: "19:00"},
		},
	},
}

// Default returns a Calendar over DefaultDepartments.
func Default() *Calendar {
	return MustNew(DefaultDepartments)
}
