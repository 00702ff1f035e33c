/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package log is a leveled printf logger shared by every package; the daemon
// logs to stderr by default and the CLI re-targets it through Init.
package log

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

type LogLevel int

const (
	ErrorLevel LogLevel = iota
	WarningLevel
	InfoLevel
	DebugLevel
)

const (
	LogPrefix  = "[go-exg] "
	HelpLevels = "Must be one of: error, warning, info, debug."
)

var levelPrefix = [...]string{
	ErrorLevel:   "[error] ",
	WarningLevel: "[warn] ",
	InfoLevel:    "[info] ",
	DebugLevel:   "[debug] ",
}

var logger = struct {
	level LogLevel
	*log.Logger
}{
	level:  InfoLevel,
	Logger: log.New(os.Stderr, LogPrefix, log.LstdFlags),
}

func ParseLevel(strLevel string) (LogLevel, error) {
	switch strLevel {
	case "error":
		return ErrorLevel, nil
	case "warning":
		return WarningLevel, nil
	case "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	}
	return 0, errors.New("Wrong log level. " + HelpLevels)
}

func SetLevel(strLevel string) error {
	level, err := ParseLevel(strLevel)
	if err != nil {
		return err
	}
	logger.level = level
	return nil
}

func Init(out io.Writer, strLevel string) {
	logger.SetOutput(out)
	if err := SetLevel(strLevel); err != nil {
		panic(err)
	}
}

func logAt(level LogLevel, format string, v ...interface{}) {
	if logger.level >= level {
		logger.Println(fmt.Sprintf(levelPrefix[level]+format, v...))
	}
}

func Error(format string, v ...interface{}) {
	logAt(ErrorLevel, format, v...)
}

func Warning(format string, v ...interface{}) {
	logAt(WarningLevel, format, v...)
}

func Info(format string, v ...interface{}) {
	logAt(InfoLevel, format, v...)
}

func Debug(format string, v ...interface{}) {
	logAt(DebugLevel, format, v...)
}
