package cli

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fortuna/ncaa-boxscores/internal/config"
	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
)

var now = time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

func defaultOptions() *options {
	return &options{
		divisions: []string{"d1", "d2", "d3"},
		genders:   []string{"men", "women"},
	}
}

func TestSpecDates(t *testing.T) {
	tests := []struct {
		name  string
		setup func(o *options)
		want  []ncaa.Date
	}{
		{
			name:  "defaults to yesterday",
			setup: func(*options) {},
			want:  []ncaa.Date{{Year: 2025, Month: 2, Day: 28}},
		},
		{
			name:  "explicit date",
			setup: func(o *options) { o.date = "2025/01/12" },
			want:  []ncaa.Date{{Year: 2025, Month: 1, Day: 12}},
		},
		{
			name:  "backfill",
			setup: func(o *options) { o.backfill = true },
			want:  []ncaa.Date{{Year: 2025, Month: 1, Day: 12}, {Year: 2025, Month: 2, Day: 15}},
		},
		{
			name: "range",
			setup: func(o *options) {
				o.start = "2025/01/30"
				o.end = "2025/02/02"
			},
			want: []ncaa.Date{
				{Year: 2025, Month: 1, Day: 30},
				{Year: 2025, Month: 1, Day: 31},
				{Year: 2025, Month: 2, Day: 1},
				{Year: 2025, Month: 2, Day: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.setup(o)
			spec, err := o.spec(&config.Config{}, now)
			if err != nil {
				t.Fatalf("spec: %v", err)
			}
			if !reflect.DeepEqual(spec.Dates, tt.want) {
				t.Errorf("dates = %v, want %v", spec.Dates, tt.want)
			}
		})
	}
}

func TestSpecErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(o *options)
		wantErr string
	}{
		{"bad date", func(o *options) { o.date = "2025-01-12" }, "invalid date"},
		{"start without end", func(o *options) { o.start = "2025/01/12" }, "together"},
		{"reversed range", func(o *options) { o.start, o.end = "2025/02/02", "2025/01/30" }, "before"},
		{"bad division", func(o *options) { o.divisions = []string{"d4"} }, "invalid division"},
		{"bad gender", func(o *options) { o.genders = []string{"coed"} }, "invalid gender"},
		{"no genders", func(o *options) { o.genders = nil }, "at least one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.setup(o)
			_, err := o.spec(&config.Config{}, now)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSpecTargetsAndFlags(t *testing.T) {
	o := defaultOptions()
	o.divisions = []string{"D2", "d1", "d2"}
	o.genders = []string{"women"}
	o.force = true
	o.precheck = true

	spec, err := o.spec(&config.Config{UploadEnabled: true}, now)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	if want := []ncaa.Division{ncaa.DivisionD2, ncaa.DivisionD1}; !reflect.DeepEqual(spec.Divisions, want) {
		t.Errorf("divisions = %v, want %v", spec.Divisions, want)
	}
	if want := []ncaa.Gender{ncaa.GenderWomen}; !reflect.DeepEqual(spec.Genders, want) {
		t.Errorf("genders = %v, want %v", spec.Genders, want)
	}
	if !spec.Force || !spec.Upload || !spec.Precheck {
		t.Errorf("flags = %+v", spec)
	}
}

func TestSpecUploadOverrides(t *testing.T) {
	tests := []struct {
		name      string
		env       bool
		upload    bool
		noUpload  bool
		precheck  bool
		want      bool
		wantCheck bool
	}{
		{"env default off", false, false, false, true, false, false},
		{"env on", true, false, false, false, true, false},
		{"flag on", false, true, false, true, true, true},
		{"flag off beats env", true, false, true, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			o.upload, o.noUpload, o.precheck = tt.upload, tt.noUpload, tt.precheck
			spec, err := o.spec(&config.Config{UploadEnabled: tt.env}, now)
			if err != nil {
				t.Fatalf("spec: %v", err)
			}
			if spec.Upload != tt.want || spec.Precheck != tt.wantCheck {
				t.Errorf("upload=%v precheck=%v, want %v %v", spec.Upload, spec.Precheck, tt.want, tt.wantCheck)
			}
		})
	}
}

func TestRootCmdRejectsConflictingFlags(t *testing.T) {
	tests := [][]string{
		{"--upload", "--no-upload"},
		{"--date", "2025/01/12", "--backfill"},
		{"--start", "2025/01/12"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			cmd := NewRootCmd()
			cmd.SetArgs(args)
			cmd.SetOut(&strings.Builder{})
			cmd.SetErr(&strings.Builder{})
			if err := cmd.Execute(); err == nil {
				t.Fatal("expected flag validation error")
			}
		})
	}
}
