package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/navikt/studyroom/internal/models"
	"github.com/navikt/studyroom/internal/service"
)

// splitForm splits the arguments of a form command on "|"
func splitForm(args []string) []string {
	parts := strings.Split(strings.Join(args, " "), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// formField returns the i-th form field, or "" when it was not given
func formField(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// requireTeacher reports a refusal and returns false for non-teachers
func (s *Shell) requireTeacher(ctx context.Context, operation string) bool {
	if err := s.catalog.RequireTeacher(ctx, operation); err != nil {
		s.report(err)
		return false
	}
	return true
}

func (s *Shell) printResult(res *models.Result, fallback string) {
	if res != nil && res.Message != "" {
		s.printf("%s\n", res.Message)
		return
	}
	s.printf("%s\n", fallback)
}

func (s *Shell) roomAdmin(ctx context.Context, sub string, args []string) {
	var (
		res *models.Result
		err error
	)

	switch sub {
	case "add":
		parts := splitForm(args)
		if formField(parts, 0) == "" {
			s.usage("room add <name> [| type | max_cam | meet link]")
			return
		}
		in := models.RoomInput{Name: parts[0]}
		if !applyRoomForm(&in, parts[1:]) {
			s.usage("room add <name> [| type | max_cam | meet link]")
			return
		}
		if !s.requireTeacher(ctx, "room add") {
			return
		}
		res, err = s.catalog.SaveRoom(ctx, in)
	case "edit":
		if len(args) == 0 {
			s.usage("room edit <id> [name] [| type | max_cam | meet link]")
			return
		}
		if !s.requireTeacher(ctx, "room edit") {
			return
		}
		rooms, lerr := s.catalog.Rooms(ctx)
		if lerr != nil {
			s.report(lerr)
			return
		}
		room := models.FindRoom(rooms, args[0])
		if room == nil {
			s.reportValidation(service.ErrNoRoomSelected)
			return
		}
		in := models.EditRoomInput(*room)
		parts := splitForm(args[1:])
		if name := formField(parts, 0); name != "" {
			in.Name = name
		}
		if !applyRoomForm(&in, parts[1:]) {
			s.usage("room edit <id> [name] [| type | max_cam | meet link]")
			return
		}
		res, err = s.catalog.SaveRoom(ctx, in)
	case "delete":
		if len(args) != 1 {
			s.usage("room delete <id>")
			return
		}
		if !s.requireTeacher(ctx, "room delete") {
			return
		}
		res, err = s.catalog.DeleteRoom(ctx, args[0])
	default:
		s.usage("room add|edit|delete ...")
		return
	}

	if err != nil {
		s.report(err)
		return
	}
	s.printResult(res, "Room saved.")
	s.controller.RefreshRooms(ctx)
}

// applyRoomForm copies the non-empty type, max_cam and meet link fields
func applyRoomForm(in *models.RoomInput, parts []string) bool {
	if v := formField(parts, 0); v != "" {
		in.Type = v
	}
	if v := formField(parts, 1); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return false
		}
		in.MaxCam = n
	}
	if v := formField(parts, 2); v != "" {
		in.MeetLink = v
	}
	return true
}

func (s *Shell) courseAdmin(ctx context.Context, sub string, args []string) {
	var (
		res *models.Result
		err error
	)

	switch sub {
	case "add":
		parts := splitForm(args)
		if formField(parts, 0) == "" || formField(parts, 1) == "" {
			s.usage("course add <name> | <description> [| thumbnail url]")
			return
		}
		if !s.requireTeacher(ctx, "course add") {
			return
		}
		res, err = s.catalog.AddCourse(ctx, models.CourseInput{
			Name:         parts[0],
			Description:  parts[1],
			ThumbnailURL: formField(parts, 2),
		})
	case "edit":
		parts := splitForm(args)
		if formField(parts, 0) == "" || formField(parts, 1) == "" {
			s.usage("course edit <old name> | <new name> [| description]")
			return
		}
		if !s.requireTeacher(ctx, "course edit") {
			return
		}
		course, lerr := s.catalog.CourseForEdit(ctx, parts[0])
		if lerr != nil {
			s.report(lerr)
			return
		}
		course.Name = parts[1]
		if desc := formField(parts, 2); desc != "" {
			course.Description = desc
		}
		res, err = s.catalog.UpdateCourse(ctx, parts[0], *course)
	case "delete":
		name := strings.Join(args, " ")
		if name == "" {
			s.usage("course delete <name>")
			return
		}
		if !s.requireTeacher(ctx, "course delete") {
			return
		}
		res, err = s.catalog.DeleteCourse(ctx, name)
	case "import":
		if len(args) == 0 {
			s.usage("course import <folder url> [description]")
			return
		}
		if !s.requireTeacher(ctx, "course import") {
			return
		}
		res, err = s.catalog.QuickAddCourse(ctx, args[0], strings.Join(args[1:], " "))
	}

	if err != nil {
		s.report(err)
		return
	}
	s.printResult(res, "Course saved.")
}

func (s *Shell) addEvent(ctx context.Context, args []string) {
	const usage = "event add <YYYY-MM-DD> <start> <end> <title> [| room id]"
	if len(args) < 4 {
		s.usage(usage)
		return
	}
	if _, err := time.Parse("2006-01-02", args[0]); err != nil {
		s.usage(usage)
		return
	}
	parts := splitForm(args[3:])
	if !s.requireTeacher(ctx, "event add") {
		return
	}

	res, err := s.catalog.AddScheduleEvent(ctx, models.ScheduleEvent{
		Date:      args[0],
		StartTime: args[1],
		EndTime:   args[2],
		Title:     parts[0],
		RoomID:    formField(parts, 1),
	})
	if err != nil {
		s.report(err)
		return
	}
	s.printResult(res, "Event added.")
}

func (s *Shell) profileSet(ctx context.Context, args []string) {
	const usage = "profile set <name|phone|school|class|goals|bio|address> <value>"
	if len(args) < 2 {
		s.usage(usage)
		return
	}

	profile, err := s.catalog.Profile(ctx)
	if err != nil {
		s.report(err)
		return
	}
	if profile == nil {
		profile = &models.Profile{}
	}

	value := strings.Join(args[1:], " ")
	switch strings.ToLower(args[0]) {
	case "name":
		profile.Name = value
	case "phone":
		profile.Phone = value
	case "school":
		profile.School = value
	case "class":
		profile.ClassGrade = value
	case "goals":
		profile.StudyGoals = value
	case "bio":
		profile.Bio = value
	case "address":
		profile.Address = value
	default:
		s.usage(usage)
		return
	}

	res, err := s.catalog.UpdateProfile(ctx, *profile)
	if err != nil {
		s.report(err)
		return
	}
	msg := res.Message
	if msg == "" {
		msg = "Profile updated."
	}
	s.printf("%s\n", msg)
}
