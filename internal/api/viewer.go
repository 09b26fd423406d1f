package api

// viewerHTML is the built-in live view: the MJPEG stream plus a status
// line fed by the WebSocket event feed.
const viewerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>camlink</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            background: #000;
            overflow: hidden;
            display: flex;
            flex-direction: column;
            min-height: 100vh;
        }
        img {
            width: 100vw;
            height: calc(100vh - 36px);
            object-fit: contain;
            display: block;
            background: #000;
        }
        .statusbar {
            height: 36px;
            display: flex;
            align-items: center;
            gap: 16px;
            padding: 0 12px;
            background: #1e1e1e;
            color: #d4d4d4;
            font-family: monospace;
            font-size: 13px;
        }
        .state { color: #4ec9b0; }
        .state.degraded { color: #dcdcaa; }
        .state.failed { color: #ce9178; }
        button {
            background: #333;
            color: #ccc;
            border: none;
            padding: 4px 12px;
            border-radius: 4px;
            cursor: pointer;
            font-family: monospace;
        }
        button:hover { background: #444; color: #fff; }
    </style>
</head>
<body>
    <img src="/stream" alt="camlink live stream">
    <div class="statusbar">
        <span class="state" id="state">connecting...</span>
        <span id="reason"></span>
        <button onclick="post('/api/snapshot')">Snapshot</button>
        <button id="recBtn" onclick="toggleRecord()">Record</button>
        <button onclick="post('/api/reset')">Reset</button>
    </div>
    <script>
        let recording = false;

        function post(url) {
            return fetch(url, { method: 'POST' }).then(r => r.json()).catch(console.error);
        }

        function toggleRecord() {
            const url = recording ? '/api/record/stop' : '/api/record/start';
            post(url).then(() => {
                recording = !recording;
                document.getElementById('recBtn').textContent = recording ? 'Stop Rec' : 'Record';
            });
        }

        function connectWS() {
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            const ws = new WebSocket(proto + '//' + location.host + '/api/status/ws');
            ws.onmessage = (e) => {
                const ev = JSON.parse(e.data);
                const el = document.getElementById('state');
                el.textContent = ev.state;
                el.className = 'state ' + ev.state;
                document.getElementById('reason').textContent = ev.reason || '';
            };
            ws.onclose = () => setTimeout(connectWS, 2000);
        }
        connectWS();
    </script>
</body>
</html>`
