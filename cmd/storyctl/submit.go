package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"storyfeed/internal/domain"
	"storyfeed/internal/service"
)

var draftFields = []string{"name", "email", "title", "body", "badge"}

func (a *app) submit(ctx context.Context, args []string, edit bool) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	id := fs.String("id", "", "replace the story with this id")
	media := fs.String("media", "", "image or video file to attach")
	values := make(map[string]*string, len(draftFields))
	for _, name := range draftFields {
		values[name] = fs.String(name, "", "story "+name)
	}
	if err := fs.Parse(args); err != nil || (edit && *id == "") {
		return errUsage
	}

	form := service.NewForm(a.api, a.uploader, a.board, a.navigator, a.publisher, a.logger)

	if *id != "" {
		if err := form.LoadForEdit(ctx, *id); err != nil {
			return err
		}
	}

	// when editing, only flags given on the command line replace loaded values
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	for _, name := range draftFields {
		if *id != "" && !set[name] {
			continue
		}
		if err := form.SetField(name, *values[name]); err != nil {
			return err
		}
	}

	if *media != "" {
		file, closeFile, err := openMedia(*media)
		if err != nil {
			return err
		}
		err = form.AttachMedia(ctx, file)
		closeFile()
		if err != nil {
			return err
		}
	}

	story, err := form.Submit(ctx)
	if err != nil {
		return err
	}

	renderStory(a.out, *story)
	return nil
}

// openMedia sniffs the content type from the file's bytes rather than its extension.
func openMedia(path string) (domain.MediaFile, func(), error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return domain.MediaFile{}, nil, fmt.Errorf("detect media type: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.MediaFile{}, nil, fmt.Errorf("open media: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return domain.MediaFile{}, nil, fmt.Errorf("stat media: %w", err)
	}

	file := domain.MediaFile{
		Name:        filepath.Base(path),
		ContentType: mtype.String(),
		Size:        info.Size(),
		Body:        f,
	}
	return file, func() { f.Close() }, nil
}
