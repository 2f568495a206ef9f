// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/devblok/korutri/utility/kar"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"
)

var (
	author   = flag.String("author", "", "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the archive given")
	compress = flag.String("c", "", "Compress the given file/folder")
	list     = flag.String("l", "", "List the files of the archive given")
	dstFile  = flag.String("f", "out.kar", "Destination file")
	dstDir   = flag.String("o", ".", "Destination directory when extracting")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	ops := 0
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		fail(errors.New("only one operation at a time"))
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *extract != "":
		err = extractFiles(*extract, *dstDir)
	case *list != "":
		err = listFiles(*list, os.Stdout)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "kar: %s\n", err)
	os.Exit(1)
}

func currentUserName() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// compressFiles archives every regular file under src,
// named by its slash separated path relative to src.
func compressFiles(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	name := *author
	if name == "" {
		name = currentUserName()
	}
	builder := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})

	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			rel = filepath.Base(path)
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		log.WithField("file", rel).Debug("compressing")
		return builder.Add(filepath.ToSlash(rel), f)
	})
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	written, err := builder.WriteTo(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return err
	}

	log.WithFields(log.Fields{
		"files": builder.Len(),
		"bytes": written,
		"dst":   dst,
	}).Info("archive written")
	return nil
}

func openArchive(path string) (*kar.Archive, func() error, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return ar, r.Close, nil
}

// outside reports whether target escapes dir.
func outside(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func extractFiles(src, dst string) error {
	ar, closer, err := openArchive(src)
	if err != nil {
		return err
	}
	defer closer()

	for _, name := range ar.Files() {
		target := filepath.Join(dst, filepath.FromSlash(name))
		if outside(dst, target) {
			return fmt.Errorf("%s: refusing to extract outside of %s", name, dst)
		}
		if err := extractFile(ar, name, target); err != nil {
			return err
		}
		log.WithField("file", target).Debug("extracted")
	}
	return nil
}

func extractFile(ar *kar.Archive, name, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	r, err := ar.Open(name)
	if err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return out.Close()
}

func listFiles(src string, w io.Writer) error {
	ar, closer, err := openArchive(src)
	if err != nil {
		return err
	}
	defer closer()

	header := ar.Header()
	fmt.Fprintf(w, "author: %s\nversion: %d\ncreated: %s\n", header.Author, header.Version,
		time.Unix(header.DateCreated, 0).UTC().Format(time.RFC3339))
	for _, entry := range header.Index {
		fmt.Fprintf(w, "%10d %10d %s\n", entry.Size, entry.CompressedSize, entry.Name)
	}
	return nil
}
