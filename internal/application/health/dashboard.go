package health

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
)

var depLabels = map[string]string{
	"database": "Postgres",
	"redis":    "Redis",
	"frontend": "Frontend",
	"supabase": "Supabase",
}

func depLabel(name string) string {
	if l, ok := depLabels[name]; ok {
		return l
	}
	return name
}

func isHealthy(status string) bool {
	return status == "connected" || status == "reachable"
}

// RenderDashboardHTML returns the status page served at GET /.
func RenderDashboardHTML(health CollectResult) string {
	b, _ := json.Marshal(health)
	// embedded in a JS template literal
	jsonStr := strings.NewReplacer("\\", "\\\\", "`", "\\`", "$", "\\$", "</", "<\\/").Replace(string(b))

	headline := "All Systems Operational"
	if health.Status != "ok" {
		headline = "System Issues Detected"
	}

	names := make([]string, 0, len(health.Dependencies))
	for name := range health.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	var deps strings.Builder
	for _, name := range names {
		d := health.Dependencies[name]
		class := "err"
		if isHealthy(d.Status) {
			class = "ok"
		}
		ping := "?"
		if p, ok := d.PingMs.(*int64); ok && p != nil {
			ping = fmt.Sprint(*p)
		}
		fmt.Fprintf(&deps, `<div class="row"><span>%s</span><span id="pill-%s" class="pill %s"><span class="dot"></span><span id="ping-%s">%s ms</span></span></div>`,
			html.EscapeString(depLabel(name)), name, class, name, ping)
		deps.WriteString("\n")
	}

	lastReq := "-"
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		method, _ := m["method"].(string)
		path, _ := m["path"].(string)
		lastReq = strings.TrimSpace(method + " " + path)
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Club25 · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --ink: #0b0b0c; --cream: #f4ecd8; --gold: #c9a45c; --muted: #8b8578; --bad: #e5484d; }
    * { box-sizing: border-box; }
    body { background: var(--ink); color: var(--cream); font-family: Georgia, 'Times New Roman', serif; margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
    .wrap { width: 100%; max-width: 960px; padding: 32px 20px; }
    h1 { font-size: clamp(28px, 5vw, 52px); font-weight: 400; letter-spacing: -1px; margin: 0 0 8px; }
    .sub { color: var(--muted); margin: 0 0 28px; font-family: monospace; font-size: 13px; }
    .card { border: 1px solid rgba(201,164,92,0.3); border-radius: 20px; display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 32px; border-right: 1px solid rgba(201,164,92,0.15); }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; letter-spacing: 3px; color: var(--gold); margin-bottom: 18px; font-family: monospace; }
    .big { font-size: 40px; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 7px 0; border-bottom: 1px solid rgba(244,236,216,0.06); font-size: 14px; }
    .row:last-child { border-bottom: none; }
    .pill { display: flex; align-items: center; gap: 6px; font-family: monospace; font-size: 12px; }
    .ok { color: var(--gold); }
    .err { color: var(--bad); }
    .dot { width: 7px; height: 7px; border-radius: 50%; background: currentColor; }
    .foot { margin-top: 20px; display: flex; justify-content: space-between; font-family: monospace; font-size: 12px; color: var(--muted); }
    a { color: var(--gold); }
    @media (max-width: 800px) { .card { grid-template-columns: 1fr; } .col { border-right: none; border-bottom: 1px solid rgba(201,164,92,0.15); } }
  </style>
</head>
<body>
  <div class="wrap">
    <h1 id="headline">` + headline + `</h1>
    <p class="sub">` + ServiceName + ` · ` + html.EscapeString(health.Runtime.GoVersion) + ` · ` + html.EscapeString(health.Runtime.Platform) + `</p>
    <div class="card">
      <div class="col">
        <div class="label">Traffic</div>
        <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
        <div class="row"><span>Successful</span><span id="success-count">` + fmt.Sprint(health.Traffic.SuccessCount) + `</span></div>
        <div class="row"><span>Failed</span><span id="failed-count">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
        <div class="row"><span>Success Rate</span><span id="success-rate">` + health.Traffic.SuccessRate + `%</span></div>
        <div class="row"><span>Avg Latency</span><span id="avg-time">` + fmt.Sprint(health.Traffic.AvgResponseTime) + `ms</span></div>
      </div>
      <div class="col">
        <div class="label">Runtime</div>
        <div class="big" id="uptime">--</div>
        <div class="row"><span>Heap In Use</span><span id="mem-heap">` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
        <div class="row"><span>Allocated</span><span>` + fmt.Sprint(health.Runtime.Memory.Alloc) + ` MB</span></div>
        <div class="row"><span>Goroutines</span><span id="goroutines">` + fmt.Sprint(health.Runtime.Goroutines) + `</span></div>
      </div>
      <div class="col">
        <div class="label">Dependencies</div>
` + deps.String() + `      </div>
    </div>
    <div class="foot">
      <span>last request: <span id="last-req">` + html.EscapeString(lastReq) + `</span></span>
      <span><a href="/health/json">/health/json</a> · <a href="/health/errors">/health/errors</a></span>
    </div>
  </div>
  <script>
    const fmt = (s) => { const h = Math.floor(s / 3600); const m = Math.floor((s % 3600) / 60); return h + 'h ' + m + 'm ' + (s % 60) + 's'; };
    const render = (d) => {
      document.getElementById('total-req').innerText = d.traffic.totalRequests;
      document.getElementById('success-count').innerText = d.traffic.successCount;
      document.getElementById('failed-count').innerText = d.traffic.failedCount;
      document.getElementById('success-rate').innerText = d.traffic.successRate + '%';
      document.getElementById('avg-time').innerText = d.traffic.avgResponseTime + 'ms';
      document.getElementById('uptime').innerText = fmt(d.runtime.uptimeSeconds);
      document.getElementById('mem-heap').innerText = d.runtime.memory.heapUsed + ' MB';
      document.getElementById('goroutines').innerText = d.runtime.goroutines;
      if (d.traffic.lastRequest) { document.getElementById('last-req').innerText = d.traffic.lastRequest.method + ' ' + d.traffic.lastRequest.path; }
      Object.entries(d.dependencies).forEach(([name, dep]) => {
        const pill = document.getElementById('pill-' + name); if (!pill) return;
        const ok = dep.status === 'connected' || dep.status === 'reachable';
        pill.className = 'pill ' + (ok ? 'ok' : 'err');
        document.getElementById('ping-' + name).innerText = (dep.pingMs != null ? dep.pingMs : '?') + ' ms';
      });
      document.getElementById('headline').innerText = d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected';
    };
    render(JSON.parse(` + "`" + jsonStr + "`" + `));
    let left = 3;
    const timer = setInterval(async () => {
      if (left-- <= 0) { clearInterval(timer); return; }
      try { const r = await fetch('/health/json'); render(await r.json()); } catch (e) {}
    }, 10000);
  </script>
</body>
</html>`
}
