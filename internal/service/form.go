package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"storyfeed/internal/domain"
)

const (
	OpField  = "field"
	OpEdit   = "edit"
	OpUpload = "upload"
	OpSubmit = "submit"
	OpCancel = "cancel"

	HomePath = "/"

	SubmitFailedMessage = "An error occurred. Please try again."
)

type Mode int

const (
	ModeEmpty Mode = iota
	ModeEditing
	ModeSubmitting
)

func (m Mode) String() string {
	switch m {
	case ModeEmpty:
		return "empty"
	case ModeEditing:
		return "editing"
	case ModeSubmitting:
		return "submitting"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

type UploadState int

const (
	UploadIdle UploadState = iota
	UploadInProgress
	UploadDone
	UploadFailed
)

func (u UploadState) String() string {
	switch u {
	case UploadIdle:
		return "idle"
	case UploadInProgress:
		return "uploading"
	case UploadDone:
		return "done"
	case UploadFailed:
		return "failed"
	}
	return fmt.Sprintf("upload(%d)", int(u))
}

// Form stages a story for creation or for replacing an existing one.
type Form struct {
	api       StoryAPI
	uploader  MediaUploader
	notifier  Notifier
	navigator Navigator
	announcer
	validate *validator.Validate
	logger   *slog.Logger

	mu        sync.Mutex
	draft     domain.Draft
	editingID string
	mode      Mode
	upload    UploadState
}

func NewForm(
	api StoryAPI,
	uploader MediaUploader,
	notifier Notifier,
	navigator Navigator,
	publisher Publisher,
	logger *slog.Logger,
) *Form {
	logger = logger.With("component", "form")

	return &Form{
		api:       api,
		uploader:  uploader,
		notifier:  notifier,
		navigator: navigator,
		announcer: announcer{publisher: publisher, logger: logger},
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// LoadForEdit fetches the story and stages it. On failure the form is left as it was.
func (f *Form) LoadForEdit(ctx context.Context, id string) error {
	story, err := f.api.Get(ctx, id)
	if err != nil {
		f.logger.Error("failed to load story", "id", id, "error", err)
		f.notifier.Error(OpEdit, "Failed to load story")
		return fmt.Errorf("load story for edit: %w", err)
	}

	f.mu.Lock()
	f.draft = domain.DraftFromStory(*story)
	f.editingID = id
	f.mode = ModeEditing
	f.mu.Unlock()

	return nil
}

// SetField stores value into the named draft field. Lengths are only checked on submit.
func (f *Form) SetField(name, value string) error {
	if err := checkField(name, value); err != nil {
		f.notifier.Error(OpField, err.Message)
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case "name":
		f.draft.Name = value
	case "email":
		f.draft.Email = value
	case "title":
		f.draft.Title = value
	case "body":
		f.draft.Body = value
	case "badge":
		f.draft.Badge = domain.Badge(value)
	}
	return nil
}

func checkField(name, value string) *domain.ValidationError {
	switch name {
	case "name", "title":
		if !domain.IsDisplayText(value) {
			label := "title"
			if name == "name" {
				label = "author name"
			}
			return domain.NewValidationError(name, "Special characters are not allowed in "+label)
		}
	case "badge":
		if value != "" && !domain.Badge(value).Valid() {
			return domain.NewValidationError(name, "Badge must be one of Article, Poems, Stories")
		}
	case "email", "body":
	default:
		return domain.NewValidationError(name, "Unknown field")
	}
	return nil
}

// AttachMedia uploads file and stages the resulting reference. Only one upload runs at a time.
func (f *Form) AttachMedia(ctx context.Context, file domain.MediaFile) error {
	if !file.IsImageOrVideo() {
		f.notifier.Error(OpUpload, "Only images and videos are allowed")
		return domain.NewValidationError("media", "Only images and videos are allowed")
	}
	if file.Body == nil {
		f.notifier.Error(OpUpload, "Media file has no content")
		return domain.NewValidationError("media", "Media file has no content")
	}

	f.mu.Lock()
	if f.upload == UploadInProgress {
		f.mu.Unlock()
		f.notifier.Error(OpUpload, "An upload is already in progress")
		return domain.NewValidationError("media", "An upload is already in progress")
	}
	f.upload = UploadInProgress
	f.mu.Unlock()

	noticeID := f.notifier.Loading(OpUpload, "Uploading media...")

	ref, err := f.uploader.Upload(ctx, file)

	f.mu.Lock()
	if err != nil {
		f.upload = UploadFailed
		f.mu.Unlock()

		f.logger.Error("media upload failed", "file", file.Name, "error", err)
		f.notifier.Resolve(noticeID, domain.NoticeError, "Upload failed: "+err.Error())
		return fmt.Errorf("attach media: %w", err)
	}
	f.draft.Media = ref
	f.upload = UploadDone
	f.mu.Unlock()

	f.notifier.Resolve(noticeID, domain.NoticeSuccess, "Media uploaded successfully!")
	return nil
}

func (f *Form) RemoveMedia() error {
	f.mu.Lock()
	if f.upload == UploadInProgress {
		f.mu.Unlock()
		f.notifier.Error(OpUpload, "Wait for the upload to finish")
		return domain.NewValidationError("media", "Wait for the upload to finish")
	}

	f.draft.Media = nil
	f.upload = UploadIdle
	f.mu.Unlock()
	return nil
}

// Submit creates the draft, or updates the story being edited.
// On failure the draft is kept so the user can retry.
func (f *Form) Submit(ctx context.Context) (*domain.Story, error) {
	f.mu.Lock()
	draft, editingID, prev, verr := f.beginSubmit()
	f.mu.Unlock()

	if verr != nil {
		f.notifier.Error(OpSubmit, verr.Message)
		return nil, verr
	}

	var (
		story  *domain.Story
		err    error
		action domain.EventAction
	)
	if editingID != "" {
		action = domain.ActionUpdate
		story, err = f.api.Update(ctx, editingID, draft)
	} else {
		action = domain.ActionCreate
		story, err = f.api.Create(ctx, draft)
	}

	if err != nil {
		f.mu.Lock()
		f.mode = prev
		f.mu.Unlock()

		f.logger.Error("submission failed", "editing_id", editingID, "error", err)
		f.notifier.Error(OpSubmit, SubmitFailedMessage)
		return nil, fmt.Errorf("submit story: %w", err)
	}

	f.mu.Lock()
	f.reset()
	f.mu.Unlock()

	if action == domain.ActionUpdate {
		f.notifier.Success(OpSubmit, "Story updated successfully")
		f.navigator.Navigate(HomePath)
	} else {
		f.notifier.Success(OpSubmit, "Story added successfully")
	}

	f.announce(ctx, action, *story)
	return story, nil
}

// beginSubmit validates the draft and enters ModeSubmitting. Must be called with mu held.
func (f *Form) beginSubmit() (domain.Draft, string, Mode, *domain.ValidationError) {
	if f.mode == ModeSubmitting {
		return domain.Draft{}, "", f.mode, domain.NewValidationError("", "A submission is already in progress")
	}
	if f.upload == UploadInProgress {
		return domain.Draft{}, "", f.mode, domain.NewValidationError("media", "Wait for the upload to finish")
	}

	draft := f.draft
	if draft.Media != nil {
		m := *draft.Media
		draft.Media = &m
	}

	if utf8.RuneCountInString(draft.Name) > domain.MaxNameLength {
		return draft, "", f.mode, domain.NewValidationError("name", "Author name must be 50 characters or less")
	}
	if utf8.RuneCountInString(draft.Title) > domain.MaxTitleLength {
		return draft, "", f.mode, domain.NewValidationError("title", "Title must be 100 characters or less")
	}
	if utf8.RuneCountInString(draft.Body) > domain.MaxBodyLength {
		return draft, "", f.mode, domain.NewValidationError("body", "Story content must be 2000 characters or less")
	}
	if err := f.validate.Struct(draft); err != nil {
		return draft, "", f.mode, describeValidation(err)
	}

	prev := f.mode
	f.mode = ModeSubmitting
	return draft, f.editingID, prev, nil
}

func describeValidation(err error) *domain.ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, fe.Field()+" is required")
	case "email":
		return domain.NewValidationError(field, "Email must be a valid address")
	case "oneof":
		return domain.NewValidationError(field, "Badge must be one of Article, Poems, Stories")
	}
	return domain.NewValidationError(field, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
}

// CancelEdit drops the draft and leaves the form.
func (f *Form) CancelEdit() {
	f.mu.Lock()
	f.reset()
	f.mu.Unlock()

	f.navigator.Navigate(HomePath)
	f.notifier.Info(OpCancel, "Edit cancelled")
}

// reset must be called with mu held. A running upload keeps its state so completion still clears it.
func (f *Form) reset() {
	f.draft = domain.Draft{}
	f.editingID = ""
	f.mode = ModeEmpty
	if f.upload != UploadInProgress {
		f.upload = UploadIdle
	}
}

func (f *Form) Draft() domain.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := f.draft
	if d.Media != nil {
		m := *d.Media
		d.Media = &m
	}
	return d
}

func (f *Form) EditingID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editingID
}

func (f *Form) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *Form) Upload() UploadState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upload
}
