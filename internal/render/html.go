package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
)

// Page describes an HTML viewer page.
type Page struct {
	Title   string
	Subject string
	Nodes   int
	Edges   int
	// SVG is the initial drawing, usually produced by WriteSVG.
	SVG string
	// Live pages forward pointer and wheel input to the server and redraw
	// from its replies. Static pages only show the drawing.
	Live bool
}

// HTML renders p as a complete document.
func HTML(p Page) string {
	var b bytes.Buffer
	_ = WritePage(&b, p)
	return b.String()
}

// WritePage writes p as a complete document to w.
func WritePage(w io.Writer, p Page) error {
	title := p.Title
	if title == "" {
		title = "ontoview"
	}
	hint := "static export"
	if p.Live {
		hint = "drag nodes / drag background to pan / scroll to zoom / click for details"
	}

	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
body{background:#f5f7fa;color:#333;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;overflow:hidden}
#stage{position:fixed;inset:0;user-select:none}
#stage svg{width:100%%;height:100%%;display:block}
#stage .node{cursor:pointer}
#info{position:fixed;top:16px;left:16px;z-index:10;background:rgba(255,255,255,0.92);border:1px solid rgba(22,119,255,0.3);border-radius:12px;padding:16px 20px;backdrop-filter:blur(10px);font-size:13px;min-width:220px}
#info h2{color:#1677ff;font-size:16px;margin-bottom:8px}
.stat{color:#888;margin:2px 0}
.stat b{color:#333}
#subject-box{margin-top:10px;width:100%%;background:#fff;border:1px solid rgba(22,119,255,0.3);border-radius:8px;padding:6px 10px;font-size:12px;outline:none;font-family:inherit}
#subject-box:focus{border-color:#1677ff}
#clear{margin-top:6px;background:none;border:none;color:#1677ff;font-size:11px;cursor:pointer}
#detail{position:fixed;top:16px;right:16px;z-index:10;display:none;background:rgba(255,255,255,0.95);border:1px solid rgba(22,119,255,0.4);border-radius:10px;padding:12px 16px;font-size:12px;width:320px;max-height:80vh;overflow:auto}
.dt-name{color:#1677ff;font-weight:700;font-size:14px;margin-bottom:6px}
.dt-row{color:#555;margin:2px 0}
.dt-row b{color:#333}
.dt-head{color:#888;font-style:italic;margin:8px 0 4px}
#notice{position:fixed;bottom:16px;right:16px;z-index:20;display:none;background:#fff2e8;border:1px solid #ffbb96;border-radius:8px;padding:8px 14px;font-size:12px;color:#d4380d}
#legend{position:fixed;bottom:16px;left:16px;z-index:10;background:rgba(255,255,255,0.9);border:1px solid rgba(0,0,0,0.06);border-radius:10px;padding:12px 16px;font-size:11px;color:#666}
.leg-row{margin:3px 0;display:flex;align-items:center;gap:8px}
.dot{width:10px;height:10px;border-radius:2px;display:inline-block}
</style>
</head>
<body>
<div id="stage">%s</div>
<div id="info">
  <h2>%s</h2>
  <div class="stat" id="subject">%s</div>
  <div class="stat"><b id="n-nodes">%d</b> nodes</div>
  <div class="stat"><b id="n-edges">%d</b> edges</div>
  <div class="stat" style="margin-top:8px;color:#aaa;font-size:11px;">%s</div>
</div>
<div id="detail"></div>
<div id="notice"></div>
<div id="legend">
  <div class="leg-row"><span class="dot" style="background:%s"></span> object type</div>
  <div class="leg-row"><span class="dot" style="background:%s"></span> other</div>
</div>
<script>
"use strict";
const LIVE=%t;
%s
</script>
</body>
</html>
`,
		html.EscapeString(title),
		p.SVG,
		html.EscapeString(title),
		html.EscapeString(p.Subject),
		p.Nodes, p.Edges,
		html.EscapeString(hint),
		ColorObjectType, ColorDefault,
		p.Live,
		liveScript,
	)
	return err
}

// liveScript talks to the server. Events are queued so they reach it in the
// order they happened.
const liveScript = `if(LIVE){
const stage=document.getElementById('stage');
const info=document.getElementById('info');
const detail=document.getElementById('detail');
const notice=document.getElementById('notice');

const box=document.createElement('input');
box.id='subject-box';box.type='text';box.placeholder='domain <id> | reachable objectTypeName=x';
info.appendChild(box);
const clear=document.createElement('button');
clear.id='clear';clear.textContent='clear';
info.appendChild(clear);

function svgPoint(e){
  const svg=stage.querySelector('svg');
  const pt=svg.createSVGPoint();pt.x=e.clientX;pt.y=e.clientY;
  const p=pt.matrixTransform(svg.getScreenCTM().inverse());
  return{x:p.x,y:p.y};
}

let queue=Promise.resolve();
function post(url,body){
  queue=queue.then(()=>fetch(url,{method:'POST',headers:{'Content-Type':'application/json'},body:JSON.stringify(body)}))
    .then(r=>r.json()).then(apply).catch(err=>showNotice(String(err)));
}
function send(kind,e,extra){
  const p=svgPoint(e);
  post('events',Object.assign({kind:kind,x:p.x,y:p.y},extra||{}));
}

function apply(reply){
  if(!reply)return;
  if(reply.svg)stage.innerHTML=reply.svg;
  if(reply.subject!==undefined)document.getElementById('subject').textContent=reply.subject;
  if(reply.nodes!==undefined)document.getElementById('n-nodes').textContent=reply.nodes;
  if(reply.edges!==undefined)document.getElementById('n-edges').textContent=reply.edges;
  if(reply.cleared)detail.style.display='none';
  if(reply.error)showNotice(reply.error);
  const o=reply.outcome;
  if(!o||o.stale)return;
  if(o.notice)showNotice(o.notice.message);
  if(o.detail)showDetail(o.detail);
}

function row(parent,key,val){
  const el=document.createElement('div');el.className='dt-row';
  const b=document.createElement('b');b.textContent=key+': ';el.appendChild(b);
  el.appendChild(document.createTextNode(typeof val==='object'?JSON.stringify(val):String(val)));
  parent.appendChild(el);
}
function showDetail(d){
  detail.textContent='';
  const rec=d.record||{};
  const name=document.createElement('div');name.className='dt-name';
  name.textContent=rec.displayName||rec.name||d.id;detail.appendChild(name);
  Object.keys(rec).sort().forEach(k=>row(detail,k,rec[k]));
  if(d.properties&&d.properties.length>0){
    const h=document.createElement('div');h.className='dt-head';h.textContent='properties';detail.appendChild(h);
    d.properties.forEach(p=>row(detail,p.name||p.id||'?',p.dataType||''));
  }
  detail.style.display='block';
}
function showNotice(msg){
  notice.textContent=msg;notice.style.display='block';
  setTimeout(()=>{notice.style.display='none'},4000);
}

stage.addEventListener('mousedown',e=>{e.preventDefault();send('down',e)});
stage.addEventListener('mousemove',e=>{if(e.buttons)send('move',e)});
stage.addEventListener('mouseup',e=>send('up',e));
stage.addEventListener('mouseleave',e=>send('leave',e));
stage.addEventListener('wheel',e=>{e.preventDefault();send('wheel',e,{deltaY:e.deltaY})},{passive:false});

box.addEventListener('keydown',function(e){
  if(e.key!=='Enter')return;
  post('subject',{subject:this.value});
});
clear.addEventListener('click',()=>{
  queue=queue.then(()=>fetch('subject',{method:'DELETE'})).then(r=>r.json()).then(apply);
});
}`
