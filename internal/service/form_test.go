package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"storyfeed/internal/domain"
	"storyfeed/internal/service/mocks"
)

type FormTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	api       *mocks.MockStoryAPI
	uploader  *mocks.MockMediaUploader
	notifier  *mocks.MockNotifier
	navigator *mocks.MockNavigator
	publisher *mocks.MockPublisher

	form *Form
}

func (s *FormTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.api = mocks.NewMockStoryAPI(s.ctrl)
	s.uploader = mocks.NewMockMediaUploader(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.navigator = mocks.NewMockNavigator(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.form = NewForm(s.api, s.uploader, s.notifier, s.navigator, s.publisher, logger)
}

func (s *FormTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestFormTestSuite(t *testing.T) {
	suite.Run(t, new(FormTestSuite))
}

func (s *FormTestSuite) fill() {
	s.Require().NoError(s.form.SetField("name", "Jane Doe"))
	s.Require().NoError(s.form.SetField("email", "jane@example.com"))
	s.Require().NoError(s.form.SetField("title", "Night at the Pier"))
	s.Require().NoError(s.form.SetField("body", "The water was loud."))
	s.Require().NoError(s.form.SetField("badge", "Stories"))
}

func image() domain.MediaFile {
	return domain.MediaFile{Name: "pier.jpg", ContentType: "image/jpeg", Size: 3, Body: strings.NewReader("jpg")}
}

func (s *FormTestSuite) TestSetField_RejectsSpecialCharacters() {
	s.Require().NoError(s.form.SetField("name", "Bob"))

	s.notifier.EXPECT().Error(OpField, "Special characters are not allowed in author name")
	err := s.form.SetField("name", "Bob!")

	s.True(domain.IsValidation(err))
	s.Equal("Bob", s.form.Draft().Name)
}

func (s *FormTestSuite) TestSetField_RejectsSpecialCharactersInTitle() {
	s.notifier.EXPECT().Error(OpField, "Special characters are not allowed in title")

	err := s.form.SetField("title", "Pier <script>")

	s.True(domain.IsValidation(err))
	s.Empty(s.form.Draft().Title)
}

func (s *FormTestSuite) TestSetField_StoresOverLengthValues() {
	long := strings.Repeat("a", 150)

	s.NoError(s.form.SetField("title", long))
	s.NoError(s.form.SetField("body", strings.Repeat("b", 2500)))
	s.NoError(s.form.SetField("email", "not checked here!"))

	d := s.form.Draft()
	s.Equal(long, d.Title)
	s.Len(d.Body, 2500)
	s.Equal("not checked here!", d.Email)
}

func (s *FormTestSuite) TestSetField_Badge() {
	s.NoError(s.form.SetField("badge", "Poems"))
	s.Equal(domain.BadgePoems, s.form.Draft().Badge)

	s.NoError(s.form.SetField("badge", ""))
	s.Equal(domain.Badge(""), s.form.Draft().Badge)

	s.notifier.EXPECT().Error(OpField, gomock.Any())
	s.True(domain.IsValidation(s.form.SetField("badge", "Novels")))
}

func (s *FormTestSuite) TestSetField_UnknownField() {
	s.notifier.EXPECT().Error(OpField, "Unknown field")

	s.True(domain.IsValidation(s.form.SetField("createdAt", "2025")))
}

func (s *FormTestSuite) TestAttachMedia_RejectsNonMedia() {
	ctx := context.Background()
	previous := &domain.MediaRef{PublicID: "old", URL: "https://cdn/old.jpg", FileType: "image"}
	s.setMedia(previous)

	s.notifier.EXPECT().Error(OpUpload, "Only images and videos are allowed")

	err := s.form.AttachMedia(ctx, domain.MediaFile{Name: "notes.txt", ContentType: "text/plain", Body: strings.NewReader("hi")})

	s.True(domain.IsValidation(err))
	s.Equal(previous, s.form.Draft().Media)
	s.Equal(UploadDone, s.form.Upload())
}

func (s *FormTestSuite) TestAttachMedia_RejectsFileWithoutContent() {
	s.notifier.EXPECT().Error(OpUpload, "Media file has no content")

	err := s.form.AttachMedia(context.Background(), domain.MediaFile{Name: "a.png", ContentType: "image/png"})

	s.True(domain.IsValidation(err))
	s.Nil(s.form.Draft().Media)
	s.Equal(UploadIdle, s.form.Upload())
}

func (s *FormTestSuite) TestAttachMedia_Success() {
	ctx := context.Background()
	ref := &domain.MediaRef{PublicID: "TechAssignment/1_pier", URL: "https://cdn/pier.jpg", FileType: "image", Format: "jpg"}

	s.notifier.EXPECT().Loading(OpUpload, "Uploading media...").Return("n1")
	s.uploader.EXPECT().Upload(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, file domain.MediaFile) (*domain.MediaRef, error) {
			s.Equal(UploadInProgress, s.form.Upload())
			s.Equal("pier.jpg", file.Name)
			return ref, nil
		},
	)
	s.notifier.EXPECT().Resolve("n1", domain.NoticeSuccess, "Media uploaded successfully!")

	s.NoError(s.form.AttachMedia(ctx, image()))

	s.Equal(ref, s.form.Draft().Media)
	s.Equal(UploadDone, s.form.Upload())
}

func (s *FormTestSuite) TestAttachMedia_FailureKeepsPreviousMedia() {
	ctx := context.Background()
	previous := &domain.MediaRef{PublicID: "old", URL: "https://cdn/old.jpg", FileType: "image"}
	s.setMedia(previous)

	s.notifier.EXPECT().Loading(OpUpload, gomock.Any()).Return("n2")
	s.uploader.EXPECT().Upload(ctx, gomock.Any()).Return(nil, fmt.Errorf("Upload preset not found: %w", domain.ErrNetwork))
	s.notifier.EXPECT().Resolve("n2", domain.NoticeError, gomock.Any()).Do(
		func(_ string, _ domain.NoticeLevel, msg string) {
			s.True(strings.HasPrefix(msg, "Upload failed: "))
			s.Contains(msg, "Upload preset not found")
		},
	)

	err := s.form.AttachMedia(ctx, image())

	s.True(domain.IsNetwork(err))
	s.Equal(previous, s.form.Draft().Media)
	s.Equal(UploadFailed, s.form.Upload())
}

func (s *FormTestSuite) TestAttachMedia_SecondUploadRejectedWhileInFlight() {
	ctx := context.Background()
	ref := &domain.MediaRef{PublicID: "p", URL: "https://cdn/p.mp4", FileType: "video"}

	s.notifier.EXPECT().Loading(OpUpload, gomock.Any()).Return("n1")
	s.uploader.EXPECT().Upload(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.MediaFile) (*domain.MediaRef, error) {
			s.notifier.EXPECT().Error(OpUpload, "An upload is already in progress")
			s.notifier.EXPECT().Error(OpUpload, "Wait for the upload to finish")

			err := s.form.AttachMedia(ctx, image())
			s.True(domain.IsValidation(err))
			s.True(domain.IsValidation(s.form.RemoveMedia()))
			return ref, nil
		},
	).Times(1)
	s.notifier.EXPECT().Resolve("n1", domain.NoticeSuccess, gomock.Any())

	s.NoError(s.form.AttachMedia(ctx, domain.MediaFile{Name: "clip.mp4", ContentType: "video/mp4", Body: strings.NewReader("mp4")}))
	s.Equal(ref, s.form.Draft().Media)
}

func (s *FormTestSuite) TestRemoveMedia() {
	s.setMedia(&domain.MediaRef{PublicID: "p", URL: "u"})

	s.NoError(s.form.RemoveMedia())

	s.Nil(s.form.Draft().Media)
	s.Equal(UploadIdle, s.form.Upload())
}

func (s *FormTestSuite) TestSubmit_RejectsLongTitle() {
	s.fill()
	s.Require().NoError(s.form.SetField("title", strings.Repeat("t", 101)))

	s.notifier.EXPECT().Error(OpSubmit, "Title must be 100 characters or less")

	story, err := s.form.Submit(context.Background())

	s.Nil(story)
	s.True(domain.IsValidation(err))
	s.Equal(ModeEmpty, s.form.Mode())
	s.Len(s.form.Draft().Title, 101)
}

func (s *FormTestSuite) TestSubmit_AcceptsTitleAtLimit() {
	ctx := context.Background()
	s.fill()
	s.Require().NoError(s.form.SetField("title", strings.Repeat("t", 100)))

	s.api.EXPECT().Create(ctx, gomock.Any()).Return(&domain.Story{ID: "1"}, nil)
	s.notifier.EXPECT().Success(OpSubmit, gomock.Any())
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	_, err := s.form.Submit(ctx)
	s.NoError(err)
}

func (s *FormTestSuite) TestSubmit_RejectsLongName() {
	s.fill()
	s.Require().NoError(s.form.SetField("name", strings.Repeat("n", 51)))

	s.notifier.EXPECT().Error(OpSubmit, "Author name must be 50 characters or less")

	_, err := s.form.Submit(context.Background())

	var verr *domain.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("name", verr.Field)
	s.Equal(ModeEmpty, s.form.Mode())
}

func (s *FormTestSuite) TestSubmit_AcceptsNameAtLimit() {
	ctx := context.Background()
	s.fill()
	s.Require().NoError(s.form.SetField("name", strings.Repeat("n", 50)))

	s.api.EXPECT().Create(ctx, gomock.Any()).Return(&domain.Story{ID: "1"}, nil)
	s.notifier.EXPECT().Success(OpSubmit, gomock.Any())
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	_, err := s.form.Submit(ctx)
	s.NoError(err)
}

func (s *FormTestSuite) TestSubmit_RejectsLongBody() {
	s.fill()
	s.Require().NoError(s.form.SetField("body", strings.Repeat("b", 2001)))

	s.notifier.EXPECT().Error(OpSubmit, "Story content must be 2000 characters or less")

	_, err := s.form.Submit(context.Background())
	s.True(domain.IsValidation(err))
}

func (s *FormTestSuite) TestSubmit_RequiresFields() {
	tests := []struct {
		field   string
		value   string
		message string
	}{
		{"name", "", "Name is required"},
		{"email", "", "Email is required"},
		{"email", "jane.example.com", "Email must be a valid address"},
		{"badge", "", "Badge is required"},
		{"body", "", "Body is required"},
	}

	for _, tt := range tests {
		s.Run(tt.field+"/"+tt.message, func() {
			s.SetupTest()
			s.fill()
			s.Require().NoError(s.form.SetField(tt.field, tt.value))

			s.notifier.EXPECT().Error(OpSubmit, tt.message)

			_, err := s.form.Submit(context.Background())

			var verr *domain.ValidationError
			s.Require().True(errors.As(err, &verr))
			s.Equal(tt.field, verr.Field)
		})
	}
}

func (s *FormTestSuite) TestSubmit_CreateSuccess() {
	ctx := context.Background()
	s.fill()
	created := &domain.Story{ID: "11", Title: "Night at the Pier", Badge: domain.BadgeStories}

	s.api.EXPECT().Create(ctx, domain.Draft{
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Title: "Night at the Pier",
		Body:  "The water was loud.",
		Badge: domain.BadgeStories,
	}).Return(created, nil)
	s.notifier.EXPECT().Success(OpSubmit, "Story added successfully")
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, ev *domain.StoryEvent) error {
			s.Equal(domain.ActionCreate, ev.Action)
			s.Equal("11", ev.Story.ID)
			return nil
		},
	)

	story, err := s.form.Submit(ctx)

	s.NoError(err)
	s.Equal(created, story)
	s.Equal(domain.Draft{}, s.form.Draft())
	s.Equal(ModeEmpty, s.form.Mode())
	s.Empty(s.form.EditingID())
}

func (s *FormTestSuite) TestSubmit_FailurePreservesDraft() {
	ctx := context.Background()
	s.fill()

	s.api.EXPECT().Create(ctx, gomock.Any()).Return(nil, fmt.Errorf("unexpected status: 500: %w", domain.ErrNetwork))
	s.notifier.EXPECT().Error(OpSubmit, SubmitFailedMessage)

	story, err := s.form.Submit(ctx)

	s.Nil(story)
	s.True(domain.IsNetwork(err))
	s.Equal("Night at the Pier", s.form.Draft().Title)
	s.Equal(ModeEmpty, s.form.Mode())
}

func (s *FormTestSuite) TestSubmit_RejectedWhileUploading() {
	ctx := context.Background()
	s.fill()

	s.notifier.EXPECT().Loading(OpUpload, gomock.Any()).Return("n1")
	s.uploader.EXPECT().Upload(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.MediaFile) (*domain.MediaRef, error) {
			s.notifier.EXPECT().Error(OpSubmit, "Wait for the upload to finish")
			_, err := s.form.Submit(ctx)
			s.True(domain.IsValidation(err))
			return &domain.MediaRef{PublicID: "p", URL: "u", FileType: "image"}, nil
		},
	)
	s.notifier.EXPECT().Resolve("n1", domain.NoticeSuccess, gomock.Any())

	s.NoError(s.form.AttachMedia(ctx, image()))
}

func (s *FormTestSuite) TestLoadForEdit_ThenUpdate() {
	ctx := context.Background()
	existing := &domain.Story{
		ID:    "5",
		Name:  "Raj",
		Email: "raj@example.com",
		Title: "Subway",
		Body:  "Trains at 3am",
		Badge: domain.BadgePoems,
		Media: &domain.MediaRef{PublicID: "m", URL: "https://cdn/m.mp4", FileType: "video", Format: "mp4"},
	}

	s.api.EXPECT().Get(ctx, "5").Return(existing, nil)
	s.Require().NoError(s.form.LoadForEdit(ctx, "5"))

	s.Equal(ModeEditing, s.form.Mode())
	s.Equal("5", s.form.EditingID())
	s.Equal(domain.DraftFromStory(*existing), s.form.Draft())

	s.Require().NoError(s.form.SetField("title", "Subway at Dawn"))

	s.api.EXPECT().Update(ctx, "5", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, d domain.Draft) (*domain.Story, error) {
			s.Equal("Subway at Dawn", d.Title)
			s.Equal(existing.Media, d.Media)
			return &domain.Story{ID: "5", Title: d.Title}, nil
		},
	)
	s.notifier.EXPECT().Success(OpSubmit, "Story updated successfully")
	s.navigator.EXPECT().Navigate(HomePath)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	_, err := s.form.Submit(ctx)

	s.NoError(err)
	s.Equal(ModeEmpty, s.form.Mode())
	s.Empty(s.form.EditingID())
}

func (s *FormTestSuite) TestUpdateFailure_StaysEditing() {
	ctx := context.Background()
	s.api.EXPECT().Get(ctx, "5").Return(&domain.Story{
		ID: "5", Name: "Raj", Email: "raj@example.com", Title: "Subway", Body: "b", Badge: domain.BadgeArticle,
	}, nil)
	s.Require().NoError(s.form.LoadForEdit(ctx, "5"))

	s.api.EXPECT().Update(ctx, "5", gomock.Any()).Return(nil, domain.ErrNetwork)
	s.notifier.EXPECT().Error(OpSubmit, SubmitFailedMessage)

	_, err := s.form.Submit(ctx)

	s.Error(err)
	s.Equal(ModeEditing, s.form.Mode())
	s.Equal("5", s.form.EditingID())
	s.Equal("Subway", s.form.Draft().Title)
}

func (s *FormTestSuite) TestLoadForEdit_NotFoundLeavesForm() {
	ctx := context.Background()
	s.fill()

	s.api.EXPECT().Get(ctx, "404").Return(nil, fmt.Errorf("get story 404: %w", domain.ErrNotFound))
	s.notifier.EXPECT().Error(OpEdit, "Failed to load story")

	err := s.form.LoadForEdit(ctx, "404")

	s.True(domain.IsNotFound(err))
	s.Equal(ModeEmpty, s.form.Mode())
	s.Empty(s.form.EditingID())
	s.Equal("Jane Doe", s.form.Draft().Name)
}

func (s *FormTestSuite) TestLoadForEdit_ThenCancel() {
	ctx := context.Background()
	s.api.EXPECT().Get(ctx, "5").Return(&domain.Story{ID: "5", Title: "Subway", Badge: domain.BadgePoems}, nil)
	s.Require().NoError(s.form.LoadForEdit(ctx, "5"))
	s.Equal("Subway", s.form.Draft().Title)

	s.navigator.EXPECT().Navigate(HomePath)
	s.notifier.EXPECT().Info(OpCancel, "Edit cancelled")

	s.form.CancelEdit()

	s.Equal(domain.Draft{}, s.form.Draft())
	s.Equal(ModeEmpty, s.form.Mode())
	s.Empty(s.form.EditingID())
}

func (s *FormTestSuite) TestModeAndUploadStrings() {
	s.Equal("editing", ModeEditing.String())
	s.Equal("uploading", UploadInProgress.String())
	s.Equal("mode(9)", Mode(9).String())
}

func (s *FormTestSuite) setMedia(ref *domain.MediaRef) {
	s.notifier.EXPECT().Loading(OpUpload, gomock.Any()).Return("seed")
	s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any()).Return(ref, nil)
	s.notifier.EXPECT().Resolve("seed", domain.NoticeSuccess, gomock.Any())
	s.Require().NoError(s.form.AttachMedia(context.Background(), image()))
}
