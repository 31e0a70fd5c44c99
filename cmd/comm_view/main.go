package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/procwire/procwire/proc"
	"github.com/rivo/tview"
)

var configPath = flag.String("c", "data/config/bench.yaml", "path to the scenario config")

func main() {
	flag.Parse()

	_, err := proc.ParseConfig(*configPath)
	if err != nil {
		fmt.Printf("Error parsing YAML: %v\n", err)
		return
	}

	app := tview.NewApplication()
	table := tview.NewTable().SetBorders(false)

	headers := []string{"scenario", "call", "stdout", "stderr", "elapsed", "status"}
	for col, h := range headers {
		table.SetCell(0, col, tview.NewTableCell(h).SetTextColor(tcell.ColorYellow))
	}

	for i, sc := range proc.ProcwireConfig.Scenarios {
		row := i + 1
		table.SetCell(row, 0, tview.NewTableCell(sc.Name))
		for col := 1; col <= 5; col++ {
			table.SetCell(row, col, tview.NewTableCell("..."))
		}
	}

	for i, sc := range proc.ProcwireConfig.Scenarios {
		go func(sc proc.Scenario, row int) {
			var outTotal, errTotal int
			result, err := proc.RunScenario(sc, func(s proc.Sample) {
				outTotal += s.OutBytes
				errTotal += s.ErrBytes
				status := "running"
				if s.TimedOut {
					status = "timeout"
				}
				app.QueueUpdateDraw(func() {
					table.GetCell(row, 1).SetText(fmt.Sprintf("%d", s.Call))
					table.GetCell(row, 2).SetText(fmt.Sprintf("%d B", outTotal))
					table.GetCell(row, 3).SetText(fmt.Sprintf("%d B", errTotal))
					table.GetCell(row, 4).SetText(s.Elapsed.String())
					table.GetCell(row, 5).SetText(status)
				})
			})

			status := "done"
			if err != nil {
				status = fmt.Sprintf("error: %v", err)
			} else if result.ExitErr != nil {
				status = fmt.Sprintf("exit: %v", result.ExitErr)
			}
			app.QueueUpdateDraw(func() {
				table.GetCell(row, 5).SetText(status)
			})
		}(sc, i+1)
	}

	// SIGINT handler
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		app.Stop()
	}()

	if err := app.SetRoot(table, true).Run(); err != nil {
		panic(err)
	}
}
