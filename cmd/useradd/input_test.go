package main

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("alice\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Username", &out)
	if err != nil || got != "alice" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if !strings.Contains(out.String(), "Username") {
		t.Fatalf("prompt not printed: %q", out.String())
	}
}

func TestGetSimpleText_EOFKeepsPartialLine(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Email", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetPassword_Success(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return []byte("correct horse"), nil
	}

	var out bytes.Buffer
	pw, err := GetPassword(&out)
	if err != nil {
		t.Fatalf("GetPassword error: %v", err)
	}
	if string(pw) != "correct horse" {
		t.Fatalf("got %q", pw)
	}
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}

	var out bytes.Buffer
	if _, err := GetPassword(&out); err == nil {
		t.Fatal("expected error")
	}
}
