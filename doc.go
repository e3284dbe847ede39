// Package browserenv runs BrowserMob Proxy and a Selenium server as child
// processes for end-to-end browser tests.
//
// Both services are downloaded on first use, started in parallel on free
// ports, watched until they log their readiness banners, and stopped with
// SIGTERM followed by SIGKILL. Every failure is reported with its kind:
// spawn failure, premature exit, startup timeout, or abort because the
// other service failed.
//
// # Basic Usage
//
//	import "github.com/giantswarm/browserenv"
//
//	ctx := context.Background()
//
//	env, err := browserenv.New(browserenv.WithStartTimeout(time.Minute))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := env.Start(ctx); err != nil {
//	    var premature *browserenv.PrematureExitError
//	    if errors.As(err, &premature) {
//	        log.Printf("%s exited: %s\n%s", premature.Name, premature.Status, premature.Output)
//	    }
//	    _, _ = env.Stop(ctx)
//	    log.Fatal(err)
//	}
//	defer env.Stop(ctx)
//
// # Recording HAR files
//
// RunTest gives every test its own proxy port and HTTP Archive:
//
//	res, err := env.RunTest(ctx, browserenv.TestConfig{HAR: "login"},
//	    func(ctx context.Context, a browserenv.TestAddresses) (any, error) {
//	        // Point the browser at a.ProxyAddress and drive it through
//	        // the WebDriver endpoint at a.AutomationServerAddress.
//	        return nil, nil
//	    })
//
// res.Result is whatever the test function returned, and res.HAR holds the
// recorded entries even when the test function failed.
//
// # Requirements
//
// A Java runtime must be on PATH (see WithJavaCommand), plus whatever
// browser driver the Selenium server is told to use via WithJavaOptions.
package browserenv
