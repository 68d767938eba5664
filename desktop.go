package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

func desktopCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "desktop",
		Short: "Open the site in a native window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(v)
			if err != nil {
				return err
			}
			s, err := openSite(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			app := NewApp(s, logger)
			return wails.Run(&options.App{
				Title:  "Portfolio v" + Version,
				Width:  1280,
				Height: 900,
				Menu:   desktopMenu(app),
				AssetServer: &assetserver.Options{
					Handler: s.server(cfg, logger).Handler(),
				},
				OnStartup:  app.startup,
				OnShutdown: app.shutdown,
				Bind: []interface{}{
					app,
				},
			})
		},
	}

	cmd.Flags().String("data", "", "loc dataset path (overrides data.path)")
	_ = v.BindPFlag("data.path", cmd.Flags().Lookup("data"))

	return cmd
}

func desktopMenu(app *App) *menu.Menu {
	appMenu := menu.NewMenu()

	fileMenu := appMenu.AddSubmenu("File")
	fileMenu.AddText("Open Database", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:open-database")
	})
	fileMenu.AddText("Import Dataset", keys.CmdOrCtrl("i"), func(_ *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:import-csv")
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Reload", keys.CmdOrCtrl("r"), func(_ *menu.CallbackData) {
		app.Reload()
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
		runtime.Quit(app.ctx)
	})

	editMenu := appMenu.AddSubmenu("Edit")
	editMenu.AddText("Copy", keys.CmdOrCtrl("c"), nil)
	editMenu.AddText("Select All", keys.CmdOrCtrl("a"), nil)

	viewMenu := appMenu.AddSubmenu("View")
	viewMenu.AddText("Theme...", keys.CmdOrCtrl("t"), func(_ *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:theme")
	})

	return appMenu
}
