package http

import nethttp "net/http"

func dashboardHandler(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write([]byte(dashboardHTML))
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Fleet MX Report UI</title>
  <style>
    @import url("https://fonts.googleapis.com/css?family=Open+Sans:300,400,600,700");

    :root {
      --mx-blue: #0e5d8f;
      --mx-blue-2: #0971b2;
      --bg: #f7f7f7;
      --paper: #fff;
      --text: #333;
      --muted: #777;
      --line: #ddd;
      --line-soft: #eee;
      --head: #f0f0f0;
      --ok-bg: #dff0d8;
      --ok-text: #3c763d;
      --bad-bg: #f2dede;
      --bad-text: #a94442;
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Open Sans", "Helvetica Neue", Helvetica, Arial, sans-serif;
      font-size: 14px;
      line-height: 1.42857143;
    }

    header {
      background: linear-gradient(to right, var(--mx-blue) 0, var(--mx-blue-2) 100%);
      border-bottom: 1px solid #0b4e79;
      box-shadow: 0 2px 5px rgba(0, 0, 0, 0.15);
    }

    .container {
      margin-right: auto;
      margin-left: auto;
      padding-left: 15px;
      padding-right: 15px;
      width: 100%;
      max-width: 1480px;
    }

    .header-inner {
      min-height: 70px;
      display: flex;
      align-items: center;
      justify-content: space-between;
      gap: 16px;
    }

    .navbar-brand {
      color: #fff;
      font-size: 22px;
      font-weight: 300;
    }

    .navbar-brand strong { font-weight: 600; }

    .navbar-note {
      color: rgba(255, 255, 255, 0.88);
      font-size: 13px;
      font-weight: 300;
      text-align: right;
    }

    main { padding: 18px 0 32px; }

    .cards {
      display: grid;
      grid-template-columns: repeat(auto-fit, minmax(190px, 1fr));
      gap: 14px;
      margin-bottom: 16px;
    }

    .card {
      background: var(--paper);
      border: 1px solid var(--line);
      box-shadow: 0 1px 2px rgba(0, 0, 0, 0.05);
      padding: 14px 16px;
    }

    .card .label {
      color: var(--muted);
      font-size: 12px;
      text-transform: uppercase;
      letter-spacing: 0.4px;
    }

    .card .value {
      font-size: 28px;
      font-weight: 300;
      color: #444;
      margin-top: 4px;
    }

    .card .hint { color: var(--muted); font-size: 12px; margin-top: 2px; }

    .panel {
      background: var(--paper);
      border: 1px solid var(--line);
      box-shadow: 0 1px 2px rgba(0, 0, 0, 0.05);
      padding: 16px;
      margin-bottom: 16px;
    }

    .panel h2 {
      margin: 0 0 12px;
      font-size: 18px;
      font-weight: 400;
      color: #444;
      border-bottom: 1px solid var(--line-soft);
      padding-bottom: 6px;
    }

    .panel-grid {
      display: grid;
      grid-template-columns: 1fr 1fr;
      gap: 16px;
    }

    @media (max-width: 960px) {
      .panel-grid { grid-template-columns: 1fr; }
    }

    .bar-row {
      display: flex;
      align-items: center;
      gap: 8px;
      margin-bottom: 6px;
      font-size: 12px;
    }

    .bar-row .bar-label {
      flex: 0 0 160px;
      white-space: nowrap;
      overflow: hidden;
      text-overflow: ellipsis;
      text-align: right;
      color: #555;
    }

    .bar-row .bar-track { flex: 1; background: var(--line-soft); height: 16px; }

    .bar-row .bar-fill { height: 16px; background: var(--mx-blue-2); }

    .bar-row .bar-value { flex: 0 0 70px; color: var(--muted); }

    table {
      width: 100%;
      border-collapse: collapse;
      font-size: 13px;
    }

    th, td {
      border: 1px solid var(--line-soft);
      padding: 5px 8px;
      text-align: left;
    }

    th { background: var(--head); font-weight: 600; }

    tr:hover td { background: #fafcfe; }

    .status-pill {
      display: inline-block;
      padding: 1px 8px;
      font-size: 12px;
      border-radius: 3px;
    }

    .status-pill.ok { background: var(--ok-bg); color: var(--ok-text); }
    .status-pill.bad { background: var(--bad-bg); color: var(--bad-text); }

    .controls { margin-bottom: 10px; }
    .controls select, .controls input {
      font-size: 13px;
      padding: 4px 6px;
      border: 1px solid var(--line);
    }
    .controls button {
      border: 1px solid #c7d7e5;
      background: #f3f8fc;
      color: var(--mx-blue);
      padding: 4px 10px;
      font-size: 12px;
      font-weight: 600;
      cursor: pointer;
    }

    .error-note { color: var(--bad-text); font-size: 13px; }
    .muted { color: var(--muted); }
  </style>
</head>
<body>
  <header>
    <div class="container header-inner">
      <div class="navbar-brand">Fleet <strong>MX Report UI</strong></div>
      <div class="navbar-note">
        Aircraft component maintenance dashboard<br />
        <span id="generated-at">loading&hellip;</span>
      </div>
    </div>
  </header>

  <main class="container">
    <div class="cards" id="kpi-cards">
      <div class="card"><div class="label">Total removals</div><div class="value" id="kpi-removals">&ndash;</div></div>
      <div class="card"><div class="label">Tracked components</div><div class="value" id="kpi-components">&ndash;</div></div>
      <div class="card"><div class="label">Total downtime (hrs)</div><div class="value" id="kpi-downtime">&ndash;</div></div>
      <div class="card"><div class="label">Best MTBUR</div><div class="value" id="kpi-best">&ndash;</div><div class="hint">highest hours between removals</div></div>
      <div class="card"><div class="label">Worst MTBUR</div><div class="value" id="kpi-worst">&ndash;</div><div class="hint">lowest hours between removals</div></div>
    </div>

    <div class="panel-grid">
      <div class="panel">
        <h2>Unscheduled removals by month</h2>
        <div id="chart-monthly" class="muted">loading&hellip;</div>
      </div>
      <div class="panel">
        <h2>Removals by ATA chapter</h2>
        <div id="chart-ata" class="muted">loading&hellip;</div>
      </div>
      <div class="panel">
        <h2>MTBUR by component (flight hours)</h2>
        <div id="chart-mtbur" class="muted">loading&hellip;</div>
      </div>
      <div class="panel">
        <h2>Average downtime by component (hours)</h2>
        <div id="chart-downtime" class="muted">loading&hellip;</div>
      </div>
    </div>

    <div class="panel">
      <h2>Removal Pareto</h2>
      <table id="pareto-table">
        <thead>
          <tr><th>Component</th><th>Removals</th><th>Cumulative %</th></tr>
        </thead>
        <tbody><tr><td colspan="3" class="muted">loading&hellip;</td></tr></tbody>
      </table>
    </div>

    <div class="panel">
      <h2>Component detail</h2>
      <div class="controls">
        <select id="component-select"><option>loading&hellip;</option></select>
        <button id="component-load">Show</button>
      </div>
      <div id="component-detail" class="muted">select a component</div>
    </div>

    <div class="panel">
      <h2>Backing services</h2>
      <div id="services" class="muted">loading&hellip;</div>
    </div>
  </main>

  <script>
    async function getJSON(path) {
      const res = await fetch(path);
      const body = await res.json();
      if (!res.ok) {
        throw new Error(body.error || ("HTTP " + res.status));
      }
      return body;
    }

    function fmt(v) {
      if (v === null || v === undefined) return "–";
      if (typeof v === "number") return v.toLocaleString();
      return String(v);
    }

    function renderBars(el, rows, labelKey, valueKey) {
      if (!rows || rows.length === 0) {
        el.innerHTML = '<span class="muted">no data</span>';
        return;
      }
      const max = Math.max(...rows.map(function (r) { return r[valueKey]; }), 1);
      el.innerHTML = rows.map(function (r) {
        const pct = Math.round((r[valueKey] / max) * 100);
        return '<div class="bar-row">' +
          '<span class="bar-label" title="' + r[labelKey] + '">' + r[labelKey] + '</span>' +
          '<span class="bar-track"><span class="bar-fill" style="width:' + pct + '%"></span></span>' +
          '<span class="bar-value">' + fmt(r[valueKey]) + '</span>' +
          '</div>';
      }).join("");
    }

    function renderError(el, err) {
      el.innerHTML = '<span class="error-note">' + err.message + '</span>';
    }

    async function loadKPIs() {
      const body = await getJSON("/api/v1/kpis");
      const d = body.data;
      document.getElementById("kpi-removals").textContent = fmt(d.total_removals);
      document.getElementById("kpi-components").textContent = fmt(d.total_components);
      document.getElementById("kpi-downtime").textContent = fmt(d.total_downtime);
      document.getElementById("kpi-best").textContent = d.best_component || "–";
      document.getElementById("kpi-worst").textContent = d.worst_component || "–";
    }

    async function loadCharts() {
      const monthly = document.getElementById("chart-monthly");
      const ata = document.getElementById("chart-ata");
      const mtbur = document.getElementById("chart-mtbur");
      const downtime = document.getElementById("chart-downtime");

      try {
        const body = await getJSON("/api/v1/charts/monthly-removals");
        renderBars(monthly, body.data, "month", "removals");
      } catch (err) { renderError(monthly, err); }

      try {
        const body = await getJSON("/api/v1/charts/ata-removals");
        renderBars(ata, body.data, "ata_chapter", "removals");
      } catch (err) { renderError(ata, err); }

      try {
        const body = await getJSON("/api/v1/charts/component-mtbur");
        renderBars(mtbur, body.data, "component", "value");
      } catch (err) { renderError(mtbur, err); }

      try {
        const body = await getJSON("/api/v1/charts/component-downtime");
        renderBars(downtime, body.data, "component", "value");
      } catch (err) { renderError(downtime, err); }
    }

    async function loadPareto() {
      const tbody = document.querySelector("#pareto-table tbody");
      try {
        const body = await getJSON("/api/v1/charts/pareto");
        if (!body.data || body.data.length === 0) {
          tbody.innerHTML = '<tr><td colspan="3" class="muted">no data</td></tr>';
          return;
        }
        tbody.innerHTML = body.data.map(function (r) {
          return "<tr><td>" + r.component + "</td><td>" + fmt(r.removals) +
            "</td><td>" + r.cumulative_percent.toFixed(2) + "%</td></tr>";
        }).join("");
      } catch (err) {
        tbody.innerHTML = '<tr><td colspan="3" class="error-note">' + err.message + "</td></tr>";
      }
    }

    async function loadComponents() {
      const select = document.getElementById("component-select");
      try {
        const body = await getJSON("/api/v1/components");
        select.innerHTML = body.data.map(function (name) {
          return '<option value="' + name + '">' + name + "</option>";
        }).join("");
      } catch (err) {
        select.innerHTML = "<option>unavailable</option>";
      }
    }

    async function loadComponentDetail() {
      const select = document.getElementById("component-select");
      const el = document.getElementById("component-detail");
      const name = select.value;
      if (!name || name === "unavailable") return;
      el.innerHTML = '<span class="muted">loading&hellip;</span>';
      try {
        const body = await getJSON("/api/v1/components/" + encodeURIComponent(name) + "/detail");
        const d = body.data;
        const trend = (d.monthly_trend || []).map(function (m) {
          return m.month + ": " + m.removals;
        }).join(", ");
        el.innerHTML =
          "<table><tbody>" +
          "<tr><th>Removals</th><td>" + fmt(d.total_removals) + "</td></tr>" +
          "<tr><th>Total downtime (hrs)</th><td>" + fmt(d.total_downtime) + "</td></tr>" +
          "<tr><th>MTBUR (hrs)</th><td>" + fmt(d.mtbur) + "</td></tr>" +
          "<tr><th>Monthly removals</th><td>" + (trend || "–") + "</td></tr>" +
          "<tr><th>Life hours tracked</th><td>" + fmt((d.life_hours || []).length) + "</td></tr>" +
          "</tbody></table>";
      } catch (err) { renderError(el, err); }
    }

    async function loadServices() {
      const el = document.getElementById("services");
      try {
        const body = await getJSON("/api/v1/status/services");
        const services = body.services || {};
        el.innerHTML = "<table><thead><tr><th>Service</th><th>Status</th><th>Details</th></tr></thead><tbody>" +
          Object.keys(services).sort().map(function (name) {
            const s = services[name];
            const pill = s.ok
              ? '<span class="status-pill ok">ok</span>'
              : (s.enabled ? '<span class="status-pill bad">error</span>' : '<span class="status-pill">disabled</span>');
            const detail = s.error ? s.error : JSON.stringify(s.stats || s.sqlite_path || "");
            return "<tr><td>" + name + "</td><td>" + pill + "</td><td>" + detail + "</td></tr>";
          }).join("") +
          "</tbody></table>";
      } catch (err) { renderError(el, err); }
    }

    async function boot() {
      document.getElementById("generated-at").textContent = new Date().toUTCString();
      document.getElementById("component-load").addEventListener("click", loadComponentDetail);
      try { await loadKPIs(); } catch (err) {
        document.getElementById("kpi-cards").insertAdjacentHTML(
          "afterend", '<div class="panel error-note">' + err.message + "</div>");
      }
      await loadCharts();
      await loadPareto();
      await loadComponents();
      await loadServices();
    }

    boot();
  </script>
</body>
</html>
`
