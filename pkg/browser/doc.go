// Package browser wraps Playwright for a single scripted verification run.
//
// A Launcher owns the Playwright driver and hands out one Session at a time.
// A Session bundles the Chromium browser, its isolated context and the page
// the run drives. Sessions are released exactly once: Close is idempotent and
// callers defer it immediately after StartSession succeeds.
//
// # Locating elements
//
// Elements are addressed with a Target:
//
//   - Placeholder: input placeholder text ("admin or user")
//   - Label: the associated <label> text ("Password")
//   - Role: accessible role plus accessible name (button "Sign in")
//   - Text: visible text content ("Database Settings")
//   - Selector: a Playwright CSS selector, optionally narrowed to the first match
//
// # Example Usage
//
//	launcher := browser.NewLauncher(browser.LauncherOptions{})
//	if err := launcher.Initialize(); err != nil {
//	    return err
//	}
//	defer launcher.Shutdown()
//
//	session, err := launcher.StartSession(browser.SessionOptions{Headless: true})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	err = session.Navigate("http://localhost:5173/address-book/", browser.NavigateOptions{})
//	err = session.Fill(browser.Placeholder("admin or user"), "user")
//	err = session.ExpectVisible(browser.Text("Database Settings"))
package browser
