package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docopt/docopt-go"
	irc "github.com/stdchat/irccore"
)

// set via linker flags:
var version = ""

func ver() string {
	if version == "" {
		return "irccore-dev"
	}
	return "irccore-" + version
}

func main() {
	usage := `irccore.
Usage:
	irccore run [--conf <filename>] [--verbose]
	irccore -h | --help
	irccore --version
Options:
	--conf <filename>  Configuration file to use [default: irccore.yaml].
	--verbose          Log raw protocol traffic.
	-h --help          Show this screen.
	--version          Show version.`

	arguments, _ := docopt.ParseArgs(usage, nil, ver())

	config, err := LoadConfig(arguments["--conf"].(string))
	if err != nil {
		log.Fatal("Config file did not load successfully: ", err.Error())
	}

	reg := irc.NewRegistry()
	reg.Verbose = config.Verbose || arguments["--verbose"].(bool)
	if config.Version != "" {
		reg.Version = config.Version
	} else {
		reg.Version = ver()
	}

	go printEvents(reg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		reg.Close()
		os.Exit(0)
	}()

	for _, sv := range config.Servers {
		s, err := reg.Connect(sv.Address, sv.Nick)
		if err != nil {
			log.Printf("%s: %v", sv.Address, err)
			continue
		}
		for _, ch := range sv.Autojoin {
			s.Join(ch)
		}
	}

	inputLoop(reg)
	reg.Close()
}

// inputLoop reads commands from stdin until EOF. The current session
// and target are sticky: /join switches the target, /server the session.
func inputLoop(reg *irc.Registry) {
	var cur *irc.Session
	var target string

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if cur != nil && reg.Session(cur.Server()) == nil {
			cur = nil // session torn down since last input
		}
		if cur == nil {
			for _, s := range reg.Sessions() {
				cur = s
				break
			}
		}
		if err := reg.Command(cur, target, text); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if strings.HasPrefix(text, "/join ") {
			target = strings.TrimSpace(text[len("/join "):])
		} else if strings.HasPrefix(text, "/server ") {
			cur = nil
			target = ""
		}
	}
}

func printEvents(reg *irc.Registry) {
	for ev := range reg.Events() {
		fmt.Println(formatEvent(ev))
	}
}

func formatEvent(ev irc.Event) string {
	ts := ev.Time.Format("15:04:05")
	where := ev.Network
	if ev.Channel != "" {
		where += "/" + ev.Channel
	}
	switch ev.Kind {
	case irc.EventChannelMessage:
		return fmt.Sprintf("%s [%s] <%s> %s", ts, where, ev.Nick, ev.Body)
	case irc.EventPrivateMessage:
		return fmt.Sprintf("%s [%s/%s] <%s> %s", ts, ev.Network, ev.Nick, ev.Actor, ev.Body)
	case irc.EventAction:
		return fmt.Sprintf("%s [%s] * %s %s", ts, where, ev.Nick, ev.Body)
	case irc.EventJoined:
		return fmt.Sprintf("%s [%s] %s joined", ts, where, ev.Nick)
	case irc.EventParted:
		return fmt.Sprintf("%s [%s] %s left (%s)", ts, where, ev.Nick, ev.Body)
	case irc.EventQuit:
		return fmt.Sprintf("%s [%s] %s quit (%s)", ts, ev.Network, ev.Nick, ev.Body)
	case irc.EventNickChanged:
		return fmt.Sprintf("%s [%s] %s is now known as %s", ts, ev.Network, ev.Nick, ev.NewNick)
	case irc.EventModeChanged:
		return fmt.Sprintf("%s [%s] %s sets %s on %s", ts, where, ev.Actor, ev.Body, ev.Nick)
	case irc.EventKickedSelf:
		return fmt.Sprintf("%s [%s] you were kicked by %s (%s)", ts, where, ev.Actor, ev.Body)
	case irc.EventKickedOther:
		return fmt.Sprintf("%s [%s] %s was kicked by %s (%s)", ts, where, ev.Nick, ev.Actor, ev.Body)
	case irc.EventBanCompleted:
		return fmt.Sprintf("%s [%s] banned %s (%s)", ts, where, ev.Nick, ev.Body)
	case irc.EventNamesUpdated:
		nicks := make([]string, len(ev.Members))
		for i, m := range ev.Members {
			prefix := ""
			if m.Operator {
				prefix = "@"
			} else if m.Voice {
				prefix = "+"
			}
			nicks[i] = prefix + m.Nick
		}
		return fmt.Sprintf("%s [%s] members: %s", ts, where, strings.Join(nicks, " "))
	case irc.EventChannelListEntry:
		return fmt.Sprintf("%s [%s] %s (%d) %s", ts, ev.Network,
			ev.Entry.Channel, ev.Entry.UserCount, ev.Entry.Topic)
	case irc.EventChannelListEnd:
		return fmt.Sprintf("%s [%s] end of channel list", ts, ev.Network)
	case irc.EventSessionError:
		return fmt.Sprintf("%s [%s] error: %s", ts, ev.Network, ev.Body)
	case irc.EventSessionClosed:
		return fmt.Sprintf("%s [%s] disconnected: %s", ts, ev.Network, ev.Body)
	}
	return fmt.Sprintf("%s [%s] %s %s", ts, where, ev.Kind, ev.Body)
}
